package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agent42-ai/agent42/pkg/agents"
	"github.com/agent42-ai/agent42/pkg/config"
	"github.com/agent42-ai/agent42/pkg/contextpack"
	"github.com/agent42-ai/agent42/pkg/presenter"
	"github.com/agent42-ai/agent42/pkg/skills"
	"github.com/agent42-ai/agent42/pkg/tasktypes"
)

type PackConfig struct {
	TaskType string
	Agent    string
	Skills   []string
	Vars     map[string]string
	Output   string
}

func NewPackConfig() *PackConfig {
	return &PackConfig{
		TaskType: string(tasktypes.General),
		Agent:    "",
		Skills:   nil,
		Vars:     nil,
		Output:   "",
	}
}

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Build a context pack for a task",
	Long: `Build the context document handed to an agent for a task: the selected
persona followed by the skills that apply to the task type, plus any
skills requested by name.

Examples:
  agent42 pack --task-type DEPLOYMENT
  agent42 pack --task-type CODING --agent developer
  agent42 pack --skill deploy-checklist --var env=staging`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getPackConfigFromFlags(cmd)
		buildPackCmd(cmd, config)
	},
}

func init() {
	defaults := NewPackConfig()
	packCmd.Flags().StringP("task-type", "t", defaults.TaskType, "Task type to build the pack for")
	packCmd.Flags().StringP("agent", "a", defaults.Agent, "Agent profile to use (defaults to task-type selection)")
	packCmd.Flags().StringSliceP("skill", "s", defaults.Skills, "Additional skills to include by name")
	packCmd.Flags().StringToString("var", defaults.Vars, "Template variables (key=value)")
	packCmd.Flags().StringP("output", "o", defaults.Output, "Write the pack to a file instead of stdout")
	rootCmd.AddCommand(packCmd)
}

func getPackConfigFromFlags(cmd *cobra.Command) *PackConfig {
	config := NewPackConfig()
	if taskType, err := cmd.Flags().GetString("task-type"); err == nil {
		config.TaskType = taskType
	}
	if agent, err := cmd.Flags().GetString("agent"); err == nil {
		config.Agent = agent
	}
	if skillNames, err := cmd.Flags().GetStringSlice("skill"); err == nil {
		config.Skills = skillNames
	}
	if vars, err := cmd.Flags().GetStringToString("var"); err == nil {
		config.Vars = vars
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	return config
}

func buildPackCmd(cmd *cobra.Command, packConfig *PackConfig) {
	ctx := cmd.Context()

	taskType, err := tasktypes.Parse(packConfig.TaskType)
	if err != nil {
		presenter.Error(err, "Invalid task type")
		os.Exit(1)
	}

	manager := loadAgentManager(cmd)

	var profile *agents.Profile
	if packConfig.Agent != "" {
		profile, err = manager.Get(packConfig.Agent)
	} else {
		profile, err = manager.SelectForTask(taskType)
	}
	if err != nil {
		presenter.Error(err, "Failed to select agent profile")
		os.Exit(1)
	}

	cfg, err := config.FromViper()
	if err != nil {
		presenter.Error(err, "Failed to load configuration")
		os.Exit(1)
	}

	selected := map[string]*skills.Skill{}
	allSkills, enabled := skills.Initialize(ctx, cfg)
	if enabled {
		for _, skill := range allSkills {
			if skill.AppliesTo(taskType) {
				selected[skill.Name] = skill
			}
		}
		for _, name := range packConfig.Skills {
			skill, ok := allSkills[name]
			if !ok {
				presenter.Warning(fmt.Sprintf("Requested skill '%s' not found, skipping", name))
				continue
			}
			selected[skill.Name] = skill
		}
	}

	pack := &contextpack.Pack{
		Profile: profile,
		Vars:    packConfig.Vars,
	}
	for _, skill := range selected {
		pack.Skills = append(pack.Skills, skill)
	}

	document, err := contextpack.Build(ctx, pack)
	if err != nil {
		presenter.Error(err, "Failed to build context pack")
		os.Exit(1)
	}

	if packConfig.Output != "" {
		if err := os.WriteFile(packConfig.Output, []byte(document), 0o644); err != nil {
			presenter.Error(err, "Failed to write context pack")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Wrote context pack for '%s' to %s", profile.Metadata.Name, packConfig.Output))
		return
	}

	fmt.Print(document)
}
