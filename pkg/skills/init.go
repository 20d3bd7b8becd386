package skills

import (
	"context"

	"github.com/spf13/viper"

	"github.com/agent42-ai/agent42/pkg/config"
	"github.com/agent42-ai/agent42/pkg/logger"
)

// Initialize discovers and filters skills based on configuration and CLI flags.
// It reads skills.enabled from config and respects the --no-skills flag (bound
// to no_skills in viper). Returns the discovered skills and whether skills are
// enabled.
func Initialize(ctx context.Context, cfg *config.Config) (map[string]*Skill, bool) {
	// Check if disabled via CLI flag (--no-skills sets no_skills to true)
	noSkillsFlag := viper.GetBool("no_skills")

	// skills.enabled defaults to true when the skills section is absent
	enabled := (cfg == nil || cfg.Skills == nil || cfg.Skills.Enabled) && !noSkillsFlag
	if !enabled {
		return nil, false
	}

	var opts []Option
	if cfg != nil && cfg.Skills != nil && len(cfg.Skills.Dirs) > 0 {
		opts = append(opts, WithSkillDirs(cfg.Skills.Dirs...))
	}

	discovery, err := NewDiscovery(opts...)
	if err != nil {
		logger.G(ctx).WithError(err).Debug("Failed to create skill discovery")
		return nil, false
	}

	allSkills, err := discovery.DiscoverSkills()
	if err != nil {
		logger.G(ctx).WithError(err).Debug("Failed to discover skills")
		return nil, false
	}

	if cfg != nil && cfg.Skills != nil && len(cfg.Skills.Allowed) > 0 {
		allSkills = FilterByAllowlist(allSkills, cfg.Skills.Allowed)
	}

	return allSkills, true
}
