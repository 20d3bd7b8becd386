package agents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent42-ai/agent42/pkg/tasktypes"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte(content), 0o644))
}

func TestLoadProfile(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	writeProfile(t, tmpDir, "developer", `---
name: developer
description: Pragmatic senior engineer persona
role: developer
task_types:
  - CODING
---

You are a pragmatic senior engineer. Prefer small, reviewable changes.
`)

	processor, err := NewProcessor(WithProfileDirs(tmpDir))
	require.NoError(t, err)

	profile, err := processor.LoadProfile(ctx, "developer")
	require.NoError(t, err)
	assert.Equal(t, "developer", profile.Metadata.Name)
	assert.Equal(t, "Pragmatic senior engineer persona", profile.Metadata.Description)
	assert.Equal(t, "developer", profile.Metadata.Role)
	assert.Equal(t, []tasktypes.TaskType{tasktypes.Coding}, profile.Metadata.TaskTypes)
	assert.Contains(t, profile.Persona, "pragmatic senior engineer")
	assert.Equal(t, filepath.Join(tmpDir, "developer.md"), profile.Path)
}

func TestLoadProfileDefaultsNameFromFile(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	writeProfile(t, tmpDir, "anonymous", `---
description: Missing name field
---
persona body
`)

	processor, err := NewProcessor(WithProfileDirs(tmpDir))
	require.NoError(t, err)

	profile, err := processor.LoadProfile(ctx, "anonymous")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", profile.Metadata.Name)
}

func TestLoadProfileNotFound(t *testing.T) {
	ctx := context.Background()
	processor, err := NewProcessor(WithProfileDirs(t.TempDir()))
	require.NoError(t, err)

	_, err = processor.LoadProfile(ctx, "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListProfilesPrecedence(t *testing.T) {
	ctx := context.Background()
	repoDir := t.TempDir()
	homeDir := t.TempDir()

	writeProfile(t, repoDir, "researcher", `---
name: researcher
description: Repo version
---
repo persona
`)
	writeProfile(t, homeDir, "researcher", `---
name: researcher
description: Home version
---
home persona
`)
	writeProfile(t, homeDir, "marketer", `---
name: marketer
description: Only in home
---
home persona
`)

	processor, err := NewProcessor(WithProfileDirs(repoDir, homeDir))
	require.NoError(t, err)

	profiles, err := processor.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	byName := map[string]*Profile{}
	for _, p := range profiles {
		byName[p.Metadata.Name] = p
	}
	assert.Equal(t, "Repo version", byName["researcher"].Metadata.Description)
	assert.Equal(t, "Only in home", byName["marketer"].Metadata.Description)
}

func TestListProfilesBrokenProfileShadowsNamesake(t *testing.T) {
	ctx := context.Background()
	repoDir := t.TempDir()
	homeDir := t.TempDir()

	// The repo copy fails to load (invalid task type); the home copy of the
	// same name must not take its place.
	writeProfile(t, repoDir, "researcher", `---
name: researcher
description: Repo version
task_types:
  - NOT_A_TASK_TYPE
---
repo persona
`)
	writeProfile(t, homeDir, "researcher", `---
name: researcher
description: Home version
---
home persona
`)
	writeProfile(t, homeDir, "marketer", `---
name: marketer
description: Only in home
---
home persona
`)

	processor, err := NewProcessor(WithProfileDirs(repoDir, homeDir))
	require.NoError(t, err)

	profiles, err := processor.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "marketer", profiles[0].Metadata.Name)
}

func TestValidateProfile(t *testing.T) {
	processor, err := NewProcessor(WithProfileDirs(t.TempDir()))
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		profile := &Profile{
			Metadata: ProfileMetadata{Name: "x", Description: "y"},
			Persona:  "body",
		}
		assert.NoError(t, processor.ValidateProfile(profile))
	})

	t.Run("missing fields", func(t *testing.T) {
		assert.Error(t, processor.ValidateProfile(&Profile{
			Metadata: ProfileMetadata{Description: "y"}, Persona: "body",
		}))
		assert.Error(t, processor.ValidateProfile(&Profile{
			Metadata: ProfileMetadata{Name: "x"}, Persona: "body",
		}))
		assert.Error(t, processor.ValidateProfile(&Profile{
			Metadata: ProfileMetadata{Name: "x", Description: "y"}, Persona: "   \n",
		}))
	})
}
