package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Markers tracks completed components with marker files in the state
// directory, e.g. .agent42-installed-redis.
type Markers struct {
	dir string
}

// NewMarkers creates a marker store rooted at dir
func NewMarkers(dir string) *Markers {
	return &Markers{dir: dir}
}

func (m *Markers) path(component string) string {
	return filepath.Join(m.dir, fmt.Sprintf(".agent42-installed-%s", component))
}

// Installed reports whether the component's marker file exists
func (m *Markers) Installed(component string) bool {
	_, err := os.Stat(m.path(component))
	return err == nil
}

// MarkInstalled creates the component's marker file
func (m *Markers) MarkInstalled(component string) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create state directory")
	}
	if err := os.WriteFile(m.path(component), []byte{}, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write marker for component '%s'", component)
	}
	return nil
}

// Clear removes the component's marker file if present
func (m *Markers) Clear(component string) error {
	err := os.Remove(m.path(component))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to clear marker for component '%s'", component)
	}
	return nil
}

// List returns the components that currently have markers
func (m *Markers) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read state directory")
	}

	var components []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".agent42-installed-") {
			components = append(components, strings.TrimPrefix(name, ".agent42-installed-"))
		}
	}
	return components, nil
}
