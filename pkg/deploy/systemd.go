package deploy

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"text/template"

	"github.com/pkg/errors"
)

// AppUnitConfig fills the orchestrator service template
type AppUnitConfig struct {
	User       string
	WorkingDir string
	EnvFile    string
	Binary     string
}

// QdrantUnitConfig fills the qdrant service template
type QdrantUnitConfig struct {
	User       string
	Binary     string
	ConfigPath string
}

// RenderAppUnit renders the orchestrator systemd unit
func RenderAppUnit(cfg AppUnitConfig) (string, error) {
	return renderUnit("templates/agent42.service", cfg)
}

// RenderQdrantUnit renders the qdrant systemd unit
func RenderQdrantUnit(cfg QdrantUnitConfig) (string, error) {
	return renderUnit("templates/qdrant.service", cfg)
}

func renderUnit(templatePath string, data interface{}) (string, error) {
	raw, err := templateFS.ReadFile(templatePath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read template '%s'", templatePath)
	}

	tmpl, err := template.New(filepath.Base(templatePath)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse unit template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "failed to render unit template")
	}

	return buf.String(), nil
}

// WriteUnit writes a systemd unit file and reloads the daemon
func WriteUnit(ctx context.Context, execer Execer, path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create systemd directory")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write unit file '%s'", path)
	}

	if _, err := execer.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return err
	}
	return nil
}

// EnableUnit enables and starts a systemd unit
func EnableUnit(ctx context.Context, execer Execer, unit string) error {
	_, err := execer.Run(ctx, "systemctl", "enable", "--now", unit)
	return err
}

// UnitActive reports whether a systemd unit is active
func UnitActive(ctx context.Context, execer Execer, unit string) bool {
	output, err := execer.Run(ctx, "systemctl", "is-active", unit)
	return err == nil && output == "active"
}
