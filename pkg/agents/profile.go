// Package agents loads agent behavioral profiles: markdown persona documents
// that steer the model for a given role. Each profile is a markdown file with
// YAML frontmatter; the body is the persona's system-prompt text.
package agents

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/agent42-ai/agent42/pkg/logger"
	"github.com/agent42-ai/agent42/pkg/tasktypes"
)

// ProfileMetadata represents the YAML frontmatter configuration for a profile
type ProfileMetadata struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Role        string               `yaml:"role,omitempty"`
	TaskTypes   []tasktypes.TaskType `yaml:"task_types,omitempty"`
	Default     bool                 `yaml:"default,omitempty"`
}

// Profile represents a loaded agent profile with its metadata, persona text, and file path
type Profile struct {
	Metadata ProfileMetadata
	Persona  string
	Path     string
}

// AppliesTo reports whether the profile declares the given task type
func (p *Profile) AppliesTo(taskType tasktypes.TaskType) bool {
	for _, t := range p.Metadata.TaskTypes {
		if t == taskType {
			return true
		}
	}
	return false
}

// Processor handles loading and parsing of profile definitions from disk
type Processor struct {
	profileDirs []string
}

// ProcessorOption configures a Processor
type ProcessorOption func(*Processor) error

// WithProfileDirs sets custom profile directories
func WithProfileDirs(dirs ...string) ProcessorOption {
	return func(p *Processor) error {
		if len(dirs) == 0 {
			return errors.New("at least one profile directory must be specified")
		}
		p.profileDirs = dirs
		return nil
	}
}

// WithDefaultDirs sets the default profile directories (./.agent42/agents, ~/.agent42/agents)
func WithDefaultDirs() ProcessorOption {
	return func(p *Processor) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		p.profileDirs = []string{
			"./.agent42/agents",                          // Repository-specific (higher precedence)
			filepath.Join(homeDir, ".agent42", "agents"), // User home directory
		}
		return nil
	}
}

// NewProcessor creates a new profile processor with optional configuration
func NewProcessor(opts ...ProcessorOption) (*Processor, error) {
	p := &Processor{}

	if len(opts) == 0 {
		if err := WithDefaultDirs()(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply default profile directories")
		}
		return p, nil
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply profile processor option")
		}
	}

	if len(p.profileDirs) == 0 {
		if err := WithDefaultDirs()(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply default profile directories")
		}
	}

	return p, nil
}

// findProfileFile searches for a profile file in the configured directories
func (p *Processor) findProfileFile(name string) (string, error) {
	// Try both .md and no extension
	possibleNames := []string{
		name + ".md",
		name,
	}

	for _, dir := range p.profileDirs {
		for _, candidate := range possibleNames {
			fullPath := filepath.Join(dir, candidate)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
	}

	return "", errors.Errorf("agent profile '%s' not found in directories: %v", name, p.profileDirs)
}

// parseFrontmatter extracts YAML frontmatter and persona body from a profile file
func (p *Processor) parseFrontmatter(content string) (ProfileMetadata, string, error) {
	var metadata ProfileMetadata

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert([]byte(content), &buf, parser.WithContext(pctx)); err != nil {
		return metadata, content, errors.Wrap(err, "failed to convert markdown")
	}

	metaData := meta.Get(pctx)
	if metaData != nil {
		if name, ok := metaData["name"].(string); ok {
			metadata.Name = name
		}
		if description, ok := metaData["description"].(string); ok {
			metadata.Description = description
		}
		if role, ok := metaData["role"].(string); ok {
			metadata.Role = role
		}
		if def, ok := metaData["default"].(bool); ok {
			metadata.Default = def
		}

		if rawTypes := metaData["task_types"]; rawTypes != nil {
			for _, raw := range parseStringArrayField(rawTypes) {
				taskType, err := tasktypes.Parse(raw)
				if err != nil {
					return metadata, content, err
				}
				metadata.TaskTypes = append(metadata.TaskTypes, taskType)
			}
		}
	}

	return metadata, extractBodyContent(content), nil
}

// parseStringArrayField handles both []interface{} (YAML array) and string (comma-separated) formats
func parseStringArrayField(field interface{}) []string {
	switch v := field.(type) {
	case []interface{}:
		var result []string
		for _, item := range v {
			if str, ok := item.(string); ok {
				if trimmed := strings.TrimSpace(str); trimmed != "" {
					result = append(result, trimmed)
				}
			}
		}
		return result
	case string:
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	default:
		return nil
	}
}

// extractBodyContent extracts the markdown body content after YAML frontmatter
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.Join(lines[frontmatterEnd+1:], "\n")
}

// LoadProfile loads a single profile by name
func (p *Processor) LoadProfile(ctx context.Context, name string) (*Profile, error) {
	logger.G(ctx).WithField("profile", name).Debug("Loading agent profile")

	profilePath, err := p.findProfileFile(name)
	if err != nil {
		return nil, err
	}

	logger.G(ctx).WithField("path", profilePath).Debug("Found profile file")

	content, err := os.ReadFile(profilePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profile file '%s'", profilePath)
	}

	metadata, persona, err := p.parseFrontmatter(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse frontmatter in profile '%s'", profilePath)
	}

	if metadata.Name == "" {
		metadata.Name = name
	}

	return &Profile{
		Metadata: metadata,
		Persona:  persona,
		Path:     profilePath,
	}, nil
}

// ListProfiles returns all available profiles from the configured directories
func (p *Processor) ListProfiles(ctx context.Context) ([]*Profile, error) {
	var profiles []*Profile
	seen := make(map[string]bool)

	for _, dir := range p.profileDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			// Directory might not exist, continue
			logger.G(ctx).WithField("dir", dir).Debug("Profile directory not found, skipping")
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}

			name := strings.TrimSuffix(entry.Name(), ".md")

			// Only process if not already seen (precedence: repo > home).
			// A name is claimed as soon as it is encountered: a broken
			// higher-precedence profile shadows its lower-precedence
			// namesake rather than being silently replaced by it.
			if seen[name] {
				continue
			}
			seen[name] = true

			profile, err := p.LoadProfile(ctx, name)
			if err != nil {
				logger.G(ctx).WithField("profile", name).WithError(err).Warn("Failed to load profile, skipping")
				continue
			}

			profiles = append(profiles, profile)
		}
	}

	logger.G(ctx).WithField("count", len(profiles)).Debug("Loaded agent profiles")
	return profiles, nil
}

// ValidateProfile validates that a profile has all required fields
func (p *Processor) ValidateProfile(profile *Profile) error {
	if profile.Metadata.Name == "" {
		return errors.New("profile name is required")
	}
	if profile.Metadata.Description == "" {
		return errors.New("profile description is required")
	}
	if strings.TrimSpace(profile.Persona) == "" {
		return errors.New("profile persona text cannot be empty")
	}
	return nil
}
