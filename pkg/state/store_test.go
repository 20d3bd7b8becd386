package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	runID, err := store.StartRun(ctx, "server")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, store.RecordStep(ctx, DeployStep{
		RunID: runID, Seq: 1, Name: "Install Redis", Component: "redis", Status: StatusSucceeded,
	}))
	require.NoError(t, store.RecordStep(ctx, DeployStep{
		RunID: runID, Seq: 2, Name: "Obtain TLS certificate", Component: "certbot",
		Status: StatusWarning, Detail: "certbot failed, manual instructions printed",
	}))

	require.NoError(t, store.FinishRun(ctx, runID, StatusWarning))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "server", runs[0].Target)
	assert.Equal(t, StatusWarning, runs[0].Status)
	assert.True(t, runs[0].FinishedAt.Valid)

	steps, err := store.StepsForRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "redis", steps[0].Component)
	assert.Equal(t, StatusWarning, steps[1].Status)
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.StartRun(ctx, "server")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestFinishRunUnknownID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.FinishRun(ctx, "no-such-run", StatusSucceeded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "state.db")

	store, err := NewStore(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not reapply migrations
	store, err = NewStore(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
