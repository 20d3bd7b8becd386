// Package deploy provisions a host for the Agent42 orchestrator: system
// packages, Redis, Qdrant, nginx, systemd units, firewall rules, and TLS.
// Steps are idempotent; completed components are tracked with marker files
// so re-running the installer skips work already done.
package deploy

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/agent42-ai/agent42/pkg/logger"
)

// Execer abstracts command execution so plans can be exercised in tests and
// in dry-run mode.
type Execer interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// LookPath reports whether a binary is available on PATH.
	LookPath(name string) bool
}

// SystemExecer runs commands on the host
type SystemExecer struct{}

// Run executes the command, returning trimmed combined output.
func (SystemExecer) Run(ctx context.Context, name string, args ...string) (string, error) {
	logger.G(ctx).WithFields(map[string]interface{}{
		"command": name,
		"args":    args,
	}).Debug("Executing command")

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(output))
	if err != nil {
		return trimmed, errors.Wrapf(err, "command '%s %s' failed: %s", name, strings.Join(args, " "), trimmed)
	}
	return trimmed, nil
}

// LookPath reports whether the binary resolves on PATH
func (SystemExecer) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// DryRunExecer logs commands without executing them
type DryRunExecer struct{}

// Run logs the command and succeeds without executing it
func (DryRunExecer) Run(ctx context.Context, name string, args ...string) (string, error) {
	logger.G(ctx).WithFields(map[string]interface{}{
		"command": name,
		"args":    args,
	}).Info("[dry-run] would execute")
	return "", nil
}

// LookPath always succeeds in dry-run mode
func (DryRunExecer) LookPath(string) bool {
	return true
}
