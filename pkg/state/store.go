package state

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusWarning   = "warning"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// DeployRun is one provisioning run
type DeployRun struct {
	ID         string       `db:"id"`
	Target     string       `db:"target"`
	StartedAt  time.Time    `db:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
	Status     string       `db:"status"`
}

// DeployStep is one step result within a run
type DeployStep struct {
	RunID     string `db:"run_id"`
	Seq       int    `db:"seq"`
	Name      string `db:"name"`
	Component string `db:"component"`
	Status    string `db:"status"`
	Detail    string `db:"detail"`
}

// Store records provisioning history
type Store struct {
	db *sqlx.DB
}

// NewStore opens the state database at dbPath and applies pending migrations.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	db, err := Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to run state migrations")
	}

	return &Store{db: db}, nil
}

// NewDefaultStore opens the store at the default database path.
func NewDefaultStore(ctx context.Context) (*Store, error) {
	dbPath, err := DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return NewStore(ctx, dbPath)
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the beginning of a provisioning run and returns its id.
func (s *Store) StartRun(ctx context.Context, target string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO deploy_runs (id, target, started_at, status) VALUES (?, ?, ?, ?)",
		id, target, time.Now().UTC(), StatusRunning)
	if err != nil {
		return "", errors.Wrap(err, "failed to record deploy run")
	}
	return id, nil
}

// FinishRun marks a run finished with the given status.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE deploy_runs SET finished_at = ?, status = ? WHERE id = ?",
		time.Now().UTC(), status, runID)
	if err != nil {
		return errors.Wrap(err, "failed to finish deploy run")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check finish result")
	}
	if affected == 0 {
		return errors.Errorf("deploy run '%s' not found", runID)
	}
	return nil
}

// RecordStep appends a step result to a run.
func (s *Store) RecordStep(ctx context.Context, step DeployStep) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO deploy_steps (run_id, seq, name, component, status, detail) VALUES (?, ?, ?, ?, ?, ?)",
		step.RunID, step.Seq, step.Name, step.Component, step.Status, step.Detail)
	return errors.Wrap(err, "failed to record deploy step")
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]DeployRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []DeployRun
	err := s.db.SelectContext(ctx, &runs,
		"SELECT id, target, started_at, finished_at, status FROM deploy_runs ORDER BY started_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list deploy runs")
	}
	return runs, nil
}

// StepsForRun returns the step results of a run in execution order.
func (s *Store) StepsForRun(ctx context.Context, runID string) ([]DeployStep, error) {
	var steps []DeployStep
	err := s.db.SelectContext(ctx, &steps,
		"SELECT run_id, seq, name, component, status, detail FROM deploy_steps WHERE run_id = ? ORDER BY seq",
		runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list deploy steps")
	}
	return steps, nil
}
