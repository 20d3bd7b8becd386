package skills

import (
	"os"
	"os/exec"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// CheckRequirements verifies that every binary and environment variable the
// skill declares is available on the host. All failures are aggregated so an
// operator sees the complete list in one pass.
func CheckRequirements(skill *Skill) error {
	var result *multierror.Error

	for _, bin := range skill.RequiredBins {
		if _, err := exec.LookPath(bin); err != nil {
			result = multierror.Append(result, errors.Errorf("required binary '%s' not found on PATH", bin))
		}
	}

	for _, env := range skill.RequiredEnv {
		if value, ok := os.LookupEnv(env); !ok || value == "" {
			result = multierror.Append(result, errors.Errorf("required environment variable '%s' is not set", env))
		}
	}

	return result.ErrorOrNil()
}

// CheckAllRequirements runs CheckRequirements for each skill and returns the
// failures keyed by skill name. Skills with satisfied requirements are
// omitted from the result.
func CheckAllRequirements(skills map[string]*Skill) map[string]error {
	failures := make(map[string]error)
	for name, skill := range skills {
		if err := CheckRequirements(skill); err != nil {
			failures[name] = err
		}
	}
	return failures
}
