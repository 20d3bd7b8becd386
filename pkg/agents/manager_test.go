package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent42-ai/agent42/pkg/tasktypes"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	ctx := context.Background()
	tmpDir := t.TempDir()

	writeProfile(t, tmpDir, "developer", `---
name: developer
description: Engineer persona
task_types: [CODING]
---
developer persona
`)
	writeProfile(t, tmpDir, "generalist", `---
name: generalist
description: Fallback persona
default: true
---
generalist persona
`)
	writeProfile(t, tmpDir, "broken", `---
name: broken
---
no description, fails validation
`)

	manager, err := LoadManagerWithDirs(ctx, tmpDir)
	require.NoError(t, err)
	return manager
}

func TestManagerLoadAll(t *testing.T) {
	manager := newTestManager(t)

	// broken profile dropped during validation
	assert.Equal(t, []string{"developer", "generalist"}, manager.Names())
}

func TestManagerGet(t *testing.T) {
	manager := newTestManager(t)

	t.Run("existing", func(t *testing.T) {
		profile, err := manager.Get("developer")
		require.NoError(t, err)
		assert.Equal(t, "developer", profile.Metadata.Name)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := manager.Get("nobody")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestManagerSelectForTask(t *testing.T) {
	manager := newTestManager(t)

	t.Run("matching task type", func(t *testing.T) {
		profile, err := manager.SelectForTask(tasktypes.Coding)
		require.NoError(t, err)
		assert.Equal(t, "developer", profile.Metadata.Name)
	})

	t.Run("falls back to default", func(t *testing.T) {
		profile, err := manager.SelectForTask(tasktypes.Marketing)
		require.NoError(t, err)
		assert.Equal(t, "generalist", profile.Metadata.Name)
	})
}

func TestManagerSelectForTaskNoDefault(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	writeProfile(t, tmpDir, "developer", `---
name: developer
description: Engineer persona
task_types: [CODING]
---
persona
`)

	manager, err := LoadManagerWithDirs(ctx, tmpDir)
	require.NoError(t, err)

	_, err = manager.SelectForTask(tasktypes.Research)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default profile")
}
