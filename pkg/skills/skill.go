// Package skills provides the skill library: markdown playbooks the model
// pulls in for a given task category. Skills are packaged as directories
// containing a SKILL.md file with YAML frontmatter describing the skill's
// purpose, the task types it applies to, and its host requirements.
package skills

import (
	"github.com/agent42-ai/agent42/pkg/tasktypes"
)

// Skill represents a discovered skill with its metadata
type Skill struct {
	Name         string               // Unique name from frontmatter (plugin skills carry an org/repo/ prefix)
	Description  string               // Brief description for model decision-making
	Directory    string               // Full path to the skill directory
	Content      string               // Full content of SKILL.md (body, not frontmatter)
	Always       bool                 // Included for every task regardless of task type
	TaskTypes    []tasktypes.TaskType // Task categories this skill applies to
	RequiredBins []string             // Binaries that must be on PATH
	RequiredEnv  []string             // Environment variables that must be set
}

// Metadata represents the YAML frontmatter in SKILL.md files
type Metadata struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Always          bool     `yaml:"always,omitempty"`
	TaskTypes       []string `yaml:"task_types,omitempty"`
	RequirementBins []string `yaml:"requirements_bins,omitempty"`
	RequirementEnv  []string `yaml:"requirements_env,omitempty"`
}

// AppliesTo reports whether the skill should be included for the given task
// type. Always-on skills apply to everything; otherwise the task type must be
// listed in the skill's task_types. Skills with neither are name-addressable
// only.
func (s *Skill) AppliesTo(taskType tasktypes.TaskType) bool {
	if s.Always {
		return true
	}
	for _, t := range s.TaskTypes {
		if t == taskType {
			return true
		}
	}
	return false
}
