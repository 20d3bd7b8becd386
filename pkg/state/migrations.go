package state

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Migration represents a database migration with timestamp-based versioning
type Migration struct {
	Version     int64 // Timestamp format: YYYYMMDDHHmmss (e.g., 20260815120000)
	Description string
	Up          func(*sql.Tx) error
}

// migrations is the ordered schema history for the state database
var migrations = []Migration{
	{
		Version:     20260815120000,
		Description: "create deploy_runs and deploy_steps",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS deploy_runs (
					id TEXT PRIMARY KEY,
					target TEXT NOT NULL,
					started_at DATETIME NOT NULL,
					finished_at DATETIME,
					status TEXT NOT NULL
				);
				CREATE TABLE IF NOT EXISTS deploy_steps (
					run_id TEXT NOT NULL REFERENCES deploy_runs(id),
					seq INTEGER NOT NULL,
					name TEXT NOT NULL,
					component TEXT NOT NULL,
					status TEXT NOT NULL,
					detail TEXT,
					PRIMARY KEY (run_id, seq)
				);
				CREATE INDEX IF NOT EXISTS idx_deploy_runs_started_at ON deploy_runs(started_at DESC);
			`)
			return err
		},
	},
}

// runMigrations executes all pending migrations in timestamp order
func runMigrations(ctx context.Context, db *sqlx.DB) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	for _, m := range sorted {
		if !applied[m.Version] {
			if err := applyMigration(ctx, db, m); err != nil {
				return errors.Wrapf(err, "failed to apply migration %d: %s", m.Version, m.Description)
			}
		}
	}

	return nil
}

func ensureMigrationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL,
			description TEXT
		)
	`)
	return errors.Wrap(err, "failed to create schema_migrations table")
}

func appliedMigrations(ctx context.Context, db *sqlx.DB) (map[int64]bool, error) {
	var versions []int64
	err := db.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get applied migrations")
	}

	applied := make(map[int64]bool)
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, m Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := m.Up(tx.Tx); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
		m.Version, time.Now(), m.Description)
	if err != nil {
		return errors.Wrap(err, "failed to record migration")
	}

	return tx.Commit()
}
