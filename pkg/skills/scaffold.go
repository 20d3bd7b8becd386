package skills

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Scaffold creates a new skill directory with a SKILL.md populated from the
// given metadata and a starter body. The target directory must not already
// contain a skill.
func Scaffold(baseDir string, metadata Metadata) (string, error) {
	if metadata.Name == "" {
		return "", errors.New("skill name is required")
	}
	if metadata.Description == "" {
		return "", errors.New("skill description is required")
	}

	skillDir := filepath.Join(baseDir, metadata.Name)
	skillPath := filepath.Join(skillDir, skillFileName)

	if _, err := os.Stat(skillPath); err == nil {
		return "", errors.Errorf("skill '%s' already exists at %s", metadata.Name, skillDir)
	}

	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create skill directory")
	}

	frontmatter, err := yaml.Marshal(metadata)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal skill frontmatter")
	}

	content := fmt.Sprintf("---\n%s---\n\n# %s\n\n%s\n\n## Instructions\n\nDescribe the playbook here.\n",
		frontmatter, metadata.Name, metadata.Description)

	if err := os.WriteFile(skillPath, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write SKILL.md")
	}

	return skillDir, nil
}
