package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agent42-ai/agent42/pkg/agents"
	"github.com/agent42-ai/agent42/pkg/config"
	"github.com/agent42-ai/agent42/pkg/presenter"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agent persona profiles",
	Long:  `List and inspect agent persona profiles. Profiles are markdown files with YAML frontmatter describing an agent's role and persona.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all agent profiles",
	Run: func(cmd *cobra.Command, _ []string) {
		listAgentsCmd(cmd)
	},
}

var agentShowCmd = &cobra.Command{
	Use:   "show <profile-name>",
	Short: "Show a profile's metadata and persona",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showAgentCmd(cmd, args[0])
	},
}

func init() {
	agentCmd.AddCommand(agentListCmd)
	agentCmd.AddCommand(agentShowCmd)
	rootCmd.AddCommand(agentCmd)
}

func loadAgentManager(cmd *cobra.Command) *agents.Manager {
	ctx := cmd.Context()

	cfg, err := config.FromViper()
	if err != nil {
		presenter.Error(err, "Failed to load configuration")
		os.Exit(1)
	}

	var manager *agents.Manager
	if cfg.Agents != nil && len(cfg.Agents.Dirs) > 0 {
		manager, err = agents.LoadManagerWithDirs(ctx, cfg.Agents.Dirs...)
	} else {
		manager, err = agents.LoadManager(ctx)
	}
	if err != nil {
		presenter.Error(err, "Failed to load agent profiles")
		os.Exit(1)
	}
	return manager
}

func listAgentsCmd(cmd *cobra.Command) {
	manager := loadAgentManager(cmd)

	profiles := manager.Profiles()
	if len(profiles) == 0 {
		presenter.Info("No agent profiles found")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tROLE\tTASK TYPES\tDEFAULT\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t----\t----------\t-------\t-----------")

	for _, profile := range profiles {
		var taskTypes []string
		for _, t := range profile.Metadata.TaskTypes {
			taskTypes = append(taskTypes, t.String())
		}
		description := profile.Metadata.Description
		if len(description) > 50 {
			description = description[:47] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			profile.Metadata.Name, profile.Metadata.Role,
			strings.Join(taskTypes, ","), profile.Metadata.Default, description)
	}
	tw.Flush()
}

func showAgentCmd(cmd *cobra.Command, name string) {
	manager := loadAgentManager(cmd)

	profile, err := manager.Get(name)
	if err != nil {
		presenter.Error(err, "Profile not found")
		os.Exit(1)
	}

	presenter.Section(profile.Metadata.Name)
	presenter.Info(fmt.Sprintf("Description: %s", profile.Metadata.Description))
	if profile.Metadata.Role != "" {
		presenter.Info(fmt.Sprintf("Role:        %s", profile.Metadata.Role))
	}
	if len(profile.Metadata.TaskTypes) > 0 {
		var taskTypes []string
		for _, t := range profile.Metadata.TaskTypes {
			taskTypes = append(taskTypes, t.String())
		}
		presenter.Info(fmt.Sprintf("Task types:  %s", strings.Join(taskTypes, ", ")))
	}
	if profile.Metadata.Default {
		presenter.Info("Default:     true")
	}
	presenter.Info(fmt.Sprintf("Path:        %s", profile.Path))
	presenter.Separator()
	fmt.Println(profile.Persona)
}
