// Package tasktypes defines the task categories used to select skills and
// agent profiles for a unit of work.
package tasktypes

import (
	"strings"

	"github.com/pkg/errors"
)

// TaskType is an enumerated task category
type TaskType string

const (
	// Coding covers software development tasks
	Coding TaskType = "CODING"
	// Research covers information gathering and analysis tasks
	Research TaskType = "RESEARCH"
	// Deployment covers infrastructure and release tasks
	Deployment TaskType = "DEPLOYMENT"
	// Marketing covers content and campaign tasks
	Marketing TaskType = "MARKETING"
	// Writing covers long-form writing tasks
	Writing TaskType = "WRITING"
	// DataAnalysis covers data processing and reporting tasks
	DataAnalysis TaskType = "DATA_ANALYSIS"
	// General is the fallback category for uncategorized tasks
	General TaskType = "GENERAL"
)

var all = []TaskType{
	Coding,
	Research,
	Deployment,
	Marketing,
	Writing,
	DataAnalysis,
	General,
}

// All returns every known task type in declaration order
func All() []TaskType {
	out := make([]TaskType, len(all))
	copy(out, all)
	return out
}

// Valid reports whether the task type is a known category
func (t TaskType) Valid() bool {
	for _, known := range all {
		if t == known {
			return true
		}
	}
	return false
}

// String returns the canonical representation
func (t TaskType) String() string {
	return string(t)
}

// Parse converts a string into a TaskType. Matching is case-insensitive and
// accepts hyphens in place of underscores.
func Parse(s string) (TaskType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")

	t := TaskType(normalized)
	if !t.Valid() {
		return "", errors.Errorf("unknown task type '%s', must be one of: %s", s, strings.Join(Names(), ", "))
	}
	return t, nil
}

// Names returns the canonical names of all task types
func Names() []string {
	names := make([]string, 0, len(all))
	for _, t := range all {
		names = append(names, string(t))
	}
	return names
}
