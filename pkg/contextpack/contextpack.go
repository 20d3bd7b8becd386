// Package contextpack renders an agent profile and a set of selected skills
// into a single context document for the orchestrator's system prompt.
// Skill and persona bodies are treated as templates with variable
// substitution and shell command expansion.
package contextpack

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/agent42-ai/agent42/pkg/agents"
	"github.com/agent42-ai/agent42/pkg/logger"
	"github.com/agent42-ai/agent42/pkg/skills"
)

const bashTimeout = 30 * time.Second

// Pack holds the inputs for one context document
type Pack struct {
	Profile *agents.Profile
	Skills  []*skills.Skill
	Vars    map[string]string
}

// Build renders the pack into one document: the persona text first, then a
// Skills section with one block per skill in deterministic name order.
func Build(ctx context.Context, pack *Pack) (string, error) {
	if pack == nil || pack.Profile == nil {
		return "", errors.New("a profile is required to build a context pack")
	}

	var sb strings.Builder

	persona, err := render(ctx, "persona", pack.Profile.Persona, pack.Vars)
	if err != nil {
		return "", errors.Wrapf(err, "failed to render profile '%s'", pack.Profile.Metadata.Name)
	}
	sb.WriteString(strings.TrimSpace(persona))
	sb.WriteString("\n")

	if len(pack.Skills) > 0 {
		sorted := make([]*skills.Skill, len(pack.Skills))
		copy(sorted, pack.Skills)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Name < sorted[j].Name
		})

		sb.WriteString("\n# Skills\n")
		for _, skill := range sorted {
			body, err := render(ctx, skill.Name, skill.Content, pack.Vars)
			if err != nil {
				return "", errors.Wrapf(err, "failed to render skill '%s'", skill.Name)
			}

			sb.WriteString(fmt.Sprintf("\n## %s\n\n", skill.Name))
			sb.WriteString(fmt.Sprintf("%s\n\n", skill.Description))
			sb.WriteString(strings.TrimSpace(body))
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

// render processes a template string with variable substitution and bash
// command execution using FuncMap
func render(ctx context.Context, name, content string, vars map[string]string) (string, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{
		"bash": bashFunc(ctx),
	}).Parse(content)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", errors.Wrap(err, "failed to execute template")
	}

	return buf.String(), nil
}

// bashFunc returns a function usable in templates to execute a command.
// Failures render inline as error markers rather than aborting the pack.
func bashFunc(ctx context.Context) func(...string) string {
	return func(args ...string) string {
		if len(args) == 0 {
			return "[ERROR: bash function requires at least one argument]"
		}

		command := args[0]
		cmdArgs := args[1:]

		logger.G(ctx).WithFields(map[string]interface{}{
			"command": command,
			"args":    cmdArgs,
		}).Debug("Executing template command")

		cmdCtx, cancel := context.WithTimeout(ctx, bashTimeout)
		defer cancel()

		cmd := exec.CommandContext(cmdCtx, command, cmdArgs...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			fullCmd := append([]string{command}, cmdArgs...)
			logger.G(ctx).WithFields(map[string]interface{}{
				"command": command,
				"args":    cmdArgs,
			}).WithError(err).Warn("Template command failed")
			return fmt.Sprintf("[ERROR executing command '%s': %v]", strings.Join(fullCmd, " "), err)
		}

		// Remove trailing newlines for cleaner substitution
		return strings.TrimRight(string(output), "\n\r")
	}
}
