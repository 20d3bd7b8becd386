package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agent42-ai/agent42/pkg/config"
	"github.com/agent42-ai/agent42/pkg/deploy"
	"github.com/agent42-ai/agent42/pkg/logger"
	"github.com/agent42-ai/agent42/pkg/presenter"
	"github.com/agent42-ai/agent42/pkg/state"
)

type DeployServerConfig struct {
	Domain       string
	Port         int
	EnvFile      string
	AppBinary    string
	AppUser      string
	StateDir     string
	SkipCertbot  bool
	SkipFirewall bool
	DryRun       bool
	AssumeYes    bool
}

func NewDeployServerConfig() *DeployServerConfig {
	defaults := config.DefaultDeployConfig
	return &DeployServerConfig{
		Domain:       defaults.Domain,
		Port:         defaults.Port,
		EnvFile:      defaults.EnvFile,
		AppBinary:    defaults.AppBinary,
		AppUser:      defaults.AppUser,
		StateDir:     defaults.StateDir,
		SkipCertbot:  defaults.SkipCertbot,
		SkipFirewall: defaults.SkipFirewall,
		DryRun:       false,
		AssumeYes:    false,
	}
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Provision and inspect server deployments",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var deployServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Provision a production server",
	Long: `Provision a production host for the platform: system packages, redis,
qdrant, the application systemd unit, nginx reverse proxy, firewall
rules, and TLS via certbot.

Each component is recorded with a marker file once installed, so
re-running the command only performs the steps that are still missing.
Optional components (certbot, firewall, health checks) degrade to
warnings with manual instructions instead of failing the run.

Examples:
  agent42 deploy server --domain agents.example.com
  agent42 deploy server --domain agents.example.com --port 9000 --dry-run
  agent42 deploy server --domain agents.example.com --skip-certbot -y`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getDeployServerConfigFromFlags(cmd)
		deployServerRun(cmd, config)
	},
}

var deployHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent deployment runs",
	Run: func(cmd *cobra.Command, _ []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		steps, _ := cmd.Flags().GetBool("steps")
		deployHistoryRun(cmd, limit, steps)
	},
}

func init() {
	defaults := NewDeployServerConfig()
	deployServerCmd.Flags().String("domain", defaults.Domain, "Public domain for the nginx server block (required)")
	deployServerCmd.Flags().Int("port", defaults.Port, "Port the application listens on")
	deployServerCmd.Flags().String("env-file", defaults.EnvFile, "Path to the application .env file")
	deployServerCmd.Flags().String("app-binary", defaults.AppBinary, "Path to the application binary for the systemd unit")
	deployServerCmd.Flags().String("app-user", defaults.AppUser, "System user the application runs as")
	deployServerCmd.Flags().String("state-dir", defaults.StateDir, "Directory for installation marker files")
	deployServerCmd.Flags().Bool("skip-certbot", defaults.SkipCertbot, "Skip TLS certificate issuance")
	deployServerCmd.Flags().Bool("skip-firewall", defaults.SkipFirewall, "Skip firewall configuration")
	deployServerCmd.Flags().Bool("dry-run", defaults.DryRun, "Show what would be done without executing")
	deployServerCmd.Flags().BoolP("yes", "y", defaults.AssumeYes, "Proceed without interactive confirmation")

	viper.BindPFlag("deploy.domain", deployServerCmd.Flags().Lookup("domain"))
	viper.BindPFlag("deploy.port", deployServerCmd.Flags().Lookup("port"))
	viper.BindPFlag("deploy.env_file", deployServerCmd.Flags().Lookup("env-file"))
	viper.BindPFlag("deploy.app_binary", deployServerCmd.Flags().Lookup("app-binary"))
	viper.BindPFlag("deploy.app_user", deployServerCmd.Flags().Lookup("app-user"))
	viper.BindPFlag("deploy.state_dir", deployServerCmd.Flags().Lookup("state-dir"))
	viper.BindPFlag("deploy.skip_certbot", deployServerCmd.Flags().Lookup("skip-certbot"))
	viper.BindPFlag("deploy.skip_firewall", deployServerCmd.Flags().Lookup("skip-firewall"))

	deployHistoryCmd.Flags().Int("limit", 10, "Number of runs to show")
	deployHistoryCmd.Flags().Bool("steps", false, "Show the individual steps of each run")

	deployCmd.AddCommand(deployServerCmd)
	deployCmd.AddCommand(deployHistoryCmd)
	rootCmd.AddCommand(deployCmd)
}

func getDeployServerConfigFromFlags(cmd *cobra.Command) *DeployServerConfig {
	cfg, err := config.FromViper()
	if err != nil {
		presenter.Error(err, "Failed to load configuration")
		os.Exit(1)
	}

	serverConfig := &DeployServerConfig{
		Domain:       cfg.Deploy.Domain,
		Port:         cfg.Deploy.Port,
		EnvFile:      cfg.Deploy.EnvFile,
		AppBinary:    cfg.Deploy.AppBinary,
		AppUser:      cfg.Deploy.AppUser,
		StateDir:     cfg.Deploy.StateDir,
		SkipCertbot:  cfg.Deploy.SkipCertbot,
		SkipFirewall: cfg.Deploy.SkipFirewall,
	}
	if dryRun, err := cmd.Flags().GetBool("dry-run"); err == nil {
		serverConfig.DryRun = dryRun
	}
	if assumeYes, err := cmd.Flags().GetBool("yes"); err == nil {
		serverConfig.AssumeYes = assumeYes
	}
	return serverConfig
}

func deployServerRun(cmd *cobra.Command, serverConfig *DeployServerConfig) {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if serverConfig.AppBinary == "" {
		serverConfig.AppBinary = "/opt/agent42/agent42-server"
	}

	planConfig := deploy.PlanConfig{
		Domain:       serverConfig.Domain,
		Port:         serverConfig.Port,
		EnvFile:      serverConfig.EnvFile,
		AppBinary:    serverConfig.AppBinary,
		AppUser:      serverConfig.AppUser,
		SkipCertbot:  serverConfig.SkipCertbot,
		SkipFirewall: serverConfig.SkipFirewall,
	}
	if err := planConfig.Validate(); err != nil {
		presenter.Error(err, "Invalid deployment configuration")
		os.Exit(1)
	}

	if err := deploy.Preflight(ctx, presenter.Default(), serverConfig.Port, serverConfig.AssumeYes); err != nil {
		presenter.Error(err, "Deployment aborted")
		os.Exit(1)
	}

	var execer deploy.Execer = deploy.SystemExecer{}
	if serverConfig.DryRun {
		execer = deploy.DryRunExecer{}
	}

	steps, err := deploy.ServerPlan(planConfig, execer)
	if err != nil {
		presenter.Error(err, "Failed to build deployment plan")
		os.Exit(1)
	}

	opts := []deploy.RunnerOption{
		deploy.WithPresenter(presenter.Default()),
		deploy.WithDryRun(serverConfig.DryRun),
	}

	store, err := state.NewDefaultStore(ctx)
	if err != nil {
		// History is best-effort; provisioning proceeds without it.
		logger.G(ctx).WithError(err).Warn("Deployment history unavailable")
	} else {
		defer store.Close()
		opts = append(opts, deploy.WithStore(store))
	}

	runner := deploy.NewRunner(serverConfig.StateDir, opts...)
	result, err := runner.Execute(ctx, "server", steps)
	if result != nil {
		presenter.Summary(&presenter.DeploySummary{
			Target:       "server",
			RunID:        result.RunID,
			StepsRun:     result.Run,
			StepsSkipped: result.Skipped,
			Warnings:     result.Warnings,
			Failed:       result.Failed,
		})
	}
	if err != nil {
		presenter.Error(err, "Deployment failed")
		os.Exit(1)
	}

	if !serverConfig.DryRun {
		presenter.Success(fmt.Sprintf("Server provisioned for https://%s", serverConfig.Domain))
	}
}

func deployHistoryRun(cmd *cobra.Command, limit int, showSteps bool) {
	ctx := cmd.Context()

	store, err := state.NewDefaultStore(ctx)
	if err != nil {
		presenter.Error(err, "Failed to open deployment history")
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		presenter.Error(err, "Failed to read deployment history")
		os.Exit(1)
	}

	if len(runs) == 0 {
		presenter.Info("No deployment runs recorded")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tTARGET\tSTATUS\tSTARTED")
	fmt.Fprintln(tw, "------\t------\t------\t-------")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", run.ID, run.Target, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()

	if !showSteps {
		return
	}

	for _, run := range runs {
		steps, err := store.StepsForRun(ctx, run.ID)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to read steps for run %s", run.ID))
			continue
		}
		presenter.Section(fmt.Sprintf("Run %s", run.ID))
		for _, step := range steps {
			line := fmt.Sprintf("%-12s %s", step.Status, step.Name)
			if step.Detail != "" {
				line += " - " + step.Detail
			}
			presenter.Info(line)
		}
	}
}
