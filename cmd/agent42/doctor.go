package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agent42-ai/agent42/pkg/presenter"
	"github.com/agent42-ai/agent42/pkg/skills"
	"github.com/agent42-ai/agent42/pkg/state"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that this host satisfies every skill's requirements",
	Long: `Check the host against the requirements declared by every discovered
skill: required binaries must be on PATH and required environment
variables must be set and non-empty. Also verifies that the local state
database can be opened.`,
	Run: func(cmd *cobra.Command, _ []string) {
		doctorRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorRun(cmd *cobra.Command) {
	ctx := cmd.Context()
	healthy := true

	presenter.Section("Skill requirements")
	discovery, err := skills.NewDiscovery()
	if err != nil {
		presenter.Error(err, "Failed to initialize skill discovery")
		os.Exit(1)
	}

	allSkills, err := discovery.DiscoverSkills()
	if err != nil {
		presenter.Error(err, "Failed to discover skills")
		os.Exit(1)
	}

	if len(allSkills) == 0 {
		presenter.Info("No skills installed")
	} else {
		problems := skills.CheckAllRequirements(allSkills)

		names := make([]string, 0, len(allSkills))
		for name := range allSkills {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if err, ok := problems[name]; ok {
				healthy = false
				presenter.Error(err, fmt.Sprintf("Skill '%s'", name))
				continue
			}
			presenter.Success(fmt.Sprintf("Skill '%s'", name))
		}
	}

	presenter.Section("State database")
	store, err := state.NewDefaultStore(ctx)
	if err != nil {
		healthy = false
		presenter.Error(err, "State database unavailable")
	} else {
		store.Close()
		presenter.Success("State database reachable")
	}

	presenter.Separator()
	if !healthy {
		presenter.Warning("Some checks failed; tasks depending on the affected skills will be degraded")
		os.Exit(1)
	}
	presenter.Success("All checks passed")
}
