package skills

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent42-ai/agent42/pkg/tasktypes"
)

func TestScaffold(t *testing.T) {
	t.Run("creates a loadable skill", func(t *testing.T) {
		tmpDir := t.TempDir()

		metadata := Metadata{
			Name:            "release-notes",
			Description:     "Drafting release notes",
			Always:          true,
			TaskTypes:       []string{"WRITING", "MARKETING"},
			RequirementBins: []string{"git"},
			RequirementEnv:  []string{"CHANGELOG_TOKEN"},
		}

		skillDir, err := Scaffold(tmpDir, metadata)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmpDir, "release-notes"), skillDir)

		// Every declared field must survive the write/parse round trip.
		skill, err := loadSkill(filepath.Join(skillDir, "SKILL.md"))
		require.NoError(t, err)
		assert.Equal(t, "release-notes", skill.Name)
		assert.Equal(t, "Drafting release notes", skill.Description)
		assert.True(t, skill.Always)
		assert.Equal(t, []tasktypes.TaskType{tasktypes.Writing, tasktypes.Marketing}, skill.TaskTypes)
		assert.Equal(t, []string{"git"}, skill.RequiredBins)
		assert.Equal(t, []string{"CHANGELOG_TOKEN"}, skill.RequiredEnv)
		assert.Contains(t, skill.Content, "# release-notes")
	})

	t.Run("requires name and description", func(t *testing.T) {
		tmpDir := t.TempDir()

		_, err := Scaffold(tmpDir, Metadata{Description: "no name"})
		assert.Error(t, err)

		_, err = Scaffold(tmpDir, Metadata{Name: "no-description"})
		assert.Error(t, err)
	})

	t.Run("refuses to overwrite an existing skill", func(t *testing.T) {
		tmpDir := t.TempDir()
		metadata := Metadata{Name: "dup", Description: "first"}

		_, err := Scaffold(tmpDir, metadata)
		require.NoError(t, err)

		_, err = Scaffold(tmpDir, metadata)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})
}
