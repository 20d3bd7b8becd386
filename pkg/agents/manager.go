package agents

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/agent42-ai/agent42/pkg/logger"
	"github.com/agent42-ai/agent42/pkg/tasktypes"
)

// Manager holds the loaded, validated profiles and answers selection queries
type Manager struct {
	processor *Processor
	profiles  []*Profile
}

// NewManager creates a manager backed by the given processor. A nil processor
// uses the default directories.
func NewManager(processor *Processor) (*Manager, error) {
	if processor == nil {
		var err error
		processor, err = NewProcessor()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create profile processor")
		}
	}
	return &Manager{processor: processor}, nil
}

// LoadAll loads every available profile, dropping any that fail validation
func (m *Manager) LoadAll(ctx context.Context) error {
	profiles, err := m.processor.ListProfiles(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list profiles")
	}

	var valid []*Profile
	for _, profile := range profiles {
		if err := m.processor.ValidateProfile(profile); err != nil {
			logger.G(ctx).WithField("profile", profile.Metadata.Name).WithError(err).Warn("Invalid profile, skipping")
			continue
		}
		valid = append(valid, profile)
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Metadata.Name < valid[j].Metadata.Name
	})

	m.profiles = valid
	logger.G(ctx).WithField("count", len(valid)).Info("Loaded agent profiles")
	return nil
}

// Profiles returns all loaded profiles
func (m *Manager) Profiles() []*Profile {
	return m.profiles
}

// Get returns a specific profile by name
func (m *Manager) Get(name string) (*Profile, error) {
	for _, profile := range m.profiles {
		if profile.Metadata.Name == name {
			return profile, nil
		}
	}
	return nil, errors.Errorf("agent profile '%s' not found", name)
}

// Names returns the names of all loaded profiles
func (m *Manager) Names() []string {
	var names []string
	for _, profile := range m.profiles {
		names = append(names, profile.Metadata.Name)
	}
	return names
}

// SelectForTask picks the profile for a task type: the first profile listing
// the task type, else the profile marked default.
func (m *Manager) SelectForTask(taskType tasktypes.TaskType) (*Profile, error) {
	for _, profile := range m.profiles {
		if profile.AppliesTo(taskType) {
			return profile, nil
		}
	}
	for _, profile := range m.profiles {
		if profile.Metadata.Default {
			return profile, nil
		}
	}
	return nil, errors.Errorf("no agent profile matches task type %s and no default profile is defined", taskType)
}

// LoadManager creates a manager with default configuration and loads all
// profiles. This is the main entry point for the CLI.
func LoadManager(ctx context.Context) (*Manager, error) {
	manager, err := NewManager(nil)
	if err != nil {
		return nil, err
	}
	if err := manager.LoadAll(ctx); err != nil {
		return nil, err
	}
	return manager, nil
}

// LoadManagerWithDirs creates a manager over the given directories and loads
// all profiles from them.
func LoadManagerWithDirs(ctx context.Context, dirs ...string) (*Manager, error) {
	processor, err := NewProcessor(WithProfileDirs(dirs...))
	if err != nil {
		return nil, err
	}
	manager, err := NewManager(processor)
	if err != nil {
		return nil, err
	}
	if err := manager.LoadAll(ctx); err != nil {
		return nil, err
	}
	return manager, nil
}
