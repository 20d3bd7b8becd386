package deploy

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent42-ai/agent42/pkg/presenter"
	"github.com/agent42-ai/agent42/pkg/state"
)

func quietPresenter() presenter.Presenter {
	p := presenter.NewWithOptions(nopWriter{}, nopWriter{}, presenter.ColorNever)
	return p
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("runs steps and writes markers", func(t *testing.T) {
		stateDir := t.TempDir()
		runner := NewRunner(stateDir, WithPresenter(quietPresenter()))

		var executed []string
		steps := []Step{
			{Name: "one", Component: "one", Run: func(context.Context) error {
				executed = append(executed, "one")
				return nil
			}},
			{Name: "two", Component: "two", Run: func(context.Context) error {
				executed = append(executed, "two")
				return nil
			}},
		}

		result, err := runner.Execute(ctx, "server", steps)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, executed)
		assert.Equal(t, 2, result.Run)
		assert.Equal(t, state.StatusSucceeded, result.Status)

		markers := NewMarkers(stateDir)
		assert.True(t, markers.Installed("one"))
		assert.True(t, markers.Installed("two"))
	})

	t.Run("marker skips step on re-run", func(t *testing.T) {
		stateDir := t.TempDir()
		runner := NewRunner(stateDir, WithPresenter(quietPresenter()))

		count := 0
		steps := []Step{
			{Name: "install", Component: "redis", Run: func(context.Context) error {
				count++
				return nil
			}},
		}

		_, err := runner.Execute(ctx, "server", steps)
		require.NoError(t, err)

		result, err := runner.Execute(ctx, "server", steps)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("positive check skips and marks", func(t *testing.T) {
		stateDir := t.TempDir()
		runner := NewRunner(stateDir, WithPresenter(quietPresenter()))

		steps := []Step{
			{
				Name:      "install",
				Component: "redis",
				Check: func(context.Context) (bool, string) {
					return true, "already installed"
				},
				Run: func(context.Context) error {
					t.Fatal("run should not be called")
					return nil
				},
			},
		}

		result, err := runner.Execute(ctx, "server", steps)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.True(t, NewMarkers(stateDir).Installed("redis"))
	})

	t.Run("required failure aborts", func(t *testing.T) {
		runner := NewRunner(t.TempDir(), WithPresenter(quietPresenter()))

		reached := false
		steps := []Step{
			{Name: "boom", Component: "boom", Run: func(context.Context) error {
				return errors.New("exploded")
			}},
			{Name: "after", Component: "after", Run: func(context.Context) error {
				reached = true
				return nil
			}},
		}

		result, err := runner.Execute(ctx, "server", steps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.False(t, reached)
		assert.Equal(t, state.StatusFailed, result.Status)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("optional failure degrades to warning", func(t *testing.T) {
		runner := NewRunner(t.TempDir(), WithPresenter(quietPresenter()))

		reached := false
		steps := []Step{
			{
				Name:      "certbot",
				Component: "certbot",
				Optional:  true,
				Fallback:  []string{"certbot --nginx -d example.com"},
				Run: func(context.Context) error {
					return errors.New("dns not ready")
				},
			},
			{Name: "after", Component: "after", Run: func(context.Context) error {
				reached = true
				return nil
			}},
		}

		result, err := runner.Execute(ctx, "server", steps)
		require.NoError(t, err)
		assert.True(t, reached)
		assert.Equal(t, state.StatusWarning, result.Status)
		assert.Equal(t, 1, result.Warnings)
	})

	t.Run("dry run executes nothing", func(t *testing.T) {
		stateDir := t.TempDir()
		runner := NewRunner(stateDir, WithPresenter(quietPresenter()), WithDryRun(true))

		steps := []Step{
			{Name: "install", Component: "redis", Run: func(context.Context) error {
				t.Fatal("run should not be called in dry-run mode")
				return nil
			}},
		}

		result, err := runner.Execute(ctx, "server", steps)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.False(t, NewMarkers(stateDir).Installed("redis"))
	})
}

func TestRunnerRecordsHistory(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewStore(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()

	runner := NewRunner(t.TempDir(), WithPresenter(quietPresenter()), WithStore(store))

	steps := []Step{
		{Name: "ok", Component: "ok", Run: func(context.Context) error { return nil }},
		{
			Name: "flaky", Component: "flaky", Optional: true,
			Run: func(context.Context) error { return errors.New("nope") },
		},
	}

	result, err := runner.Execute(ctx, "server", steps)
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	runs, err := store.RecentRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, state.StatusWarning, runs[0].Status)

	recorded, err := store.StepsForRun(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	assert.Equal(t, state.StatusSucceeded, recorded[0].Status)
	assert.Equal(t, state.StatusWarning, recorded[1].Status)
	assert.Contains(t, recorded[1].Detail, "nope")
}

func TestMarkers(t *testing.T) {
	markers := NewMarkers(t.TempDir())

	assert.False(t, markers.Installed("redis"))
	require.NoError(t, markers.MarkInstalled("redis"))
	require.NoError(t, markers.MarkInstalled("qdrant"))
	assert.True(t, markers.Installed("redis"))

	components, err := markers.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"redis", "qdrant"}, components)

	require.NoError(t, markers.Clear("redis"))
	assert.False(t, markers.Installed("redis"))
	require.NoError(t, markers.Clear("redis"))
}
