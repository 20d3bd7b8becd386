package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/agent42-ai/agent42/pkg/config"
	"github.com/agent42-ai/agent42/pkg/presenter"
	"github.com/agent42-ai/agent42/pkg/skills"
)

type SkillInitConfig struct {
	Global      bool
	Description string
	TaskTypes   []string
	Always      bool
}

func NewSkillInitConfig() *SkillInitConfig {
	return &SkillInitConfig{
		Global:      false,
		Description: "",
		TaskTypes:   nil,
		Always:      false,
	}
}

type SkillRemoveConfig struct {
	Global bool
}

func NewSkillRemoveConfig() *SkillRemoveConfig {
	return &SkillRemoveConfig{
		Global: false,
	}
}

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage agent42 skills",
	Long:  `List, inspect, scaffold, validate, and remove skills from the skill library.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all discovered skills",
	Long:  `List all discovered skills with their names, task types, and descriptions.`,
	Run: func(cmd *cobra.Command, _ []string) {
		listSkillsCmd(cmd)
	},
}

var skillShowCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Show a skill's metadata and instructions",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		showSkillCmd(args[0])
	},
}

var skillValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate all discovered skills",
	Long: `Validate every discovered skill: frontmatter must parse, and the
binaries and environment variables the skill requires must be available
on this host.`,
	Run: func(_ *cobra.Command, _ []string) {
		validateSkillsCmd()
	},
}

var skillInitCmd = &cobra.Command{
	Use:   "init <skill-name>",
	Short: "Scaffold a new skill directory",
	Long: `Create a new skill directory with a SKILL.md template.

Examples:
  agent42 skill init deploy-checklist --description "Pre-flight deploy checks"
  agent42 skill init seo-audit --task-types MARKETING
  agent42 skill init conventions --always -g`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getSkillInitConfigFromFlags(cmd)
		initSkillCmd(args[0], config)
	},
}

var skillRemoveCmd = &cobra.Command{
	Use:   "remove <skill-name>",
	Short: "Remove an installed skill",
	Long: `Remove an installed skill by name.

Examples:
  agent42 skill remove deploy-checklist
  agent42 skill remove deploy-checklist -g`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getSkillRemoveConfigFromFlags(cmd)
		removeSkillCmd(args[0], config)
	},
}

func init() {
	initDefaults := NewSkillInitConfig()
	skillInitCmd.Flags().BoolP("global", "g", initDefaults.Global, "Create in global ~/.agent42/skills directory instead of local ./.agent42/skills")
	skillInitCmd.Flags().StringP("description", "d", initDefaults.Description, "Skill description for model decision-making")
	skillInitCmd.Flags().StringSliceP("task-types", "t", initDefaults.TaskTypes, "Task types the skill applies to (e.g. CODING,DEPLOYMENT)")
	skillInitCmd.Flags().Bool("always", initDefaults.Always, "Include the skill for every task")

	removeDefaults := NewSkillRemoveConfig()
	skillRemoveCmd.Flags().BoolP("global", "g", removeDefaults.Global, "Remove from global ~/.agent42/skills directory instead of local ./.agent42/skills")

	skillListCmd.Flags().String("format", "table", "Output format (table, json)")

	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillShowCmd)
	skillCmd.AddCommand(skillValidateCmd)
	skillCmd.AddCommand(skillInitCmd)
	skillCmd.AddCommand(skillRemoveCmd)
	rootCmd.AddCommand(skillCmd)
}

func getSkillInitConfigFromFlags(cmd *cobra.Command) *SkillInitConfig {
	config := NewSkillInitConfig()
	if global, err := cmd.Flags().GetBool("global"); err == nil {
		config.Global = global
	}
	if description, err := cmd.Flags().GetString("description"); err == nil {
		config.Description = description
	}
	if taskTypes, err := cmd.Flags().GetStringSlice("task-types"); err == nil {
		config.TaskTypes = taskTypes
	}
	if always, err := cmd.Flags().GetBool("always"); err == nil {
		config.Always = always
	}
	return config
}

func getSkillRemoveConfigFromFlags(cmd *cobra.Command) *SkillRemoveConfig {
	config := NewSkillRemoveConfig()
	if global, err := cmd.Flags().GetBool("global"); err == nil {
		config.Global = global
	}
	return config
}

func getSkillsDir(global bool) (string, error) {
	if global {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to get user home directory")
		}
		return filepath.Join(homeDir, ".agent42", "skills"), nil
	}
	return ".agent42/skills", nil
}

func discoverConfiguredSkills(cmd *cobra.Command) map[string]*skills.Skill {
	ctx := cmd.Context()

	cfg, err := config.FromViper()
	if err != nil {
		presenter.Error(err, "Failed to load configuration")
		os.Exit(1)
	}

	allSkills, enabled := skills.Initialize(ctx, cfg)
	if !enabled {
		presenter.Info("Skills are disabled")
		os.Exit(0)
	}
	return allSkills
}

func listSkillsCmd(cmd *cobra.Command) {
	allSkills := discoverConfiguredSkills(cmd)

	if len(allSkills) == 0 {
		presenter.Info("No skills installed")
		return
	}

	names := make([]string, 0, len(allSkills))
	for name := range allSkills {
		names = append(names, name)
	}
	sort.Strings(names)

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		printSkillsJSON(allSkills, names)
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTASK TYPES\tALWAYS\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t----------\t------\t-----------")

	for _, name := range names {
		skill := allSkills[name]
		description := skill.Description
		if len(description) > 60 {
			description = description[:57] + "..."
		}
		var taskTypes []string
		for _, t := range skill.TaskTypes {
			taskTypes = append(taskTypes, t.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", skill.Name, strings.Join(taskTypes, ","), skill.Always, description)
	}
	tw.Flush()
}

func printSkillsJSON(allSkills map[string]*skills.Skill, names []string) {
	type entry struct {
		Name        string   `json:"name"`
		Directory   string   `json:"directory"`
		Description string   `json:"description"`
		Always      bool     `json:"always"`
		TaskTypes   []string `json:"taskTypes,omitempty"`
	}

	entries := make([]entry, 0, len(names))
	for _, name := range names {
		skill := allSkills[name]
		var taskTypes []string
		for _, t := range skill.TaskTypes {
			taskTypes = append(taskTypes, t.String())
		}
		entries = append(entries, entry{
			Name:        skill.Name,
			Directory:   skill.Directory,
			Description: skill.Description,
			Always:      skill.Always,
			TaskTypes:   taskTypes,
		})
	}

	output, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to render skill list")
		os.Exit(1)
	}
	fmt.Println(string(output))
}

func showSkillCmd(name string) {
	discovery, err := skills.NewDiscovery()
	if err != nil {
		presenter.Error(err, "Failed to initialize skill discovery")
		os.Exit(1)
	}

	skill, err := discovery.GetSkill(name)
	if err != nil {
		presenter.Error(err, "Skill not found")
		os.Exit(1)
	}

	presenter.Section(skill.Name)
	presenter.Info(fmt.Sprintf("Description: %s", skill.Description))
	presenter.Info(fmt.Sprintf("Directory:   %s", skill.Directory))
	if skill.Always {
		presenter.Info("Always:      true")
	}
	if len(skill.TaskTypes) > 0 {
		var taskTypes []string
		for _, t := range skill.TaskTypes {
			taskTypes = append(taskTypes, t.String())
		}
		presenter.Info(fmt.Sprintf("Task types:  %s", strings.Join(taskTypes, ", ")))
	}
	if len(skill.RequiredBins) > 0 {
		presenter.Info(fmt.Sprintf("Binaries:    %s", strings.Join(skill.RequiredBins, ", ")))
	}
	if len(skill.RequiredEnv) > 0 {
		presenter.Info(fmt.Sprintf("Env vars:    %s", strings.Join(skill.RequiredEnv, ", ")))
	}
	presenter.Separator()
	fmt.Println(skill.Content)
}

func validateSkillsCmd() {
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
		presenter.Info("No skills to validate")
		return
	}

	problems := skills.CheckAllRequirements(allSkills)

	names := make([]string, 0, len(allSkills))
	for name := range allSkills {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		if err, ok := problems[name]; ok {
			failed++
			presenter.Error(err, fmt.Sprintf("Skill '%s' has unmet requirements", name))
			continue
		}
		presenter.Success(fmt.Sprintf("Skill '%s' is valid", name))
	}

	if failed > 0 {
		presenter.Warning(fmt.Sprintf("%d of %d skill(s) have unmet requirements", failed, len(allSkills)))
		os.Exit(1)
	}
	presenter.Info(fmt.Sprintf("All %d skill(s) valid", len(allSkills)))
}

func initSkillCmd(name string, config *SkillInitConfig) {
	skillsDir, err := getSkillsDir(config.Global)
	if err != nil {
		presenter.Error(err, "Failed to determine skills directory")
		os.Exit(1)
	}

	metadata := skills.Metadata{
		Name:        name,
		Description: config.Description,
		Always:      config.Always,
		TaskTypes:   config.TaskTypes,
	}

	path, err := skills.Scaffold(skillsDir, metadata)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to scaffold skill '%s'", name))
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Created skill '%s' at %s", name, path))
}

func removeSkillCmd(name string, config *SkillRemoveConfig) {
	skillsDir, err := getSkillsDir(config.Global)
	if err != nil {
		presenter.Error(err, "Failed to determine skills directory")
		os.Exit(1)
	}

	skillDir := filepath.Join(skillsDir, name)

	skillFile := filepath.Join(skillDir, "SKILL.md")
	if _, err := os.Stat(skillFile); os.IsNotExist(err) {
		location := "local"
		if config.Global {
			location = "global"
		}
		presenter.Error(errors.Errorf("skill '%s' not found in %s skills directory", name, location), "Skill not found")
		os.Exit(1)
	}

	if err := os.RemoveAll(skillDir); err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to remove skill '%s'", name))
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Removed skill '%s' from %s", name, skillDir))
}
