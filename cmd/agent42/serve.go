package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agent42-ai/agent42/pkg/catalog"
	"github.com/agent42-ai/agent42/pkg/config"
	"github.com/agent42-ai/agent42/pkg/presenter"
	"github.com/agent42-ai/agent42/pkg/skills"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog API",
	Long: `Run a read-only HTTP API over the discovered skills and agent profiles.

Endpoints:
  GET /healthz
  GET /api/skills
  GET /api/skills/{name}
  GET /api/agents
  GET /api/agents/{name}
  GET /api/tasktypes`,
	Run: func(cmd *cobra.Command, _ []string) {
		serveRun(cmd)
	},
}

func init() {
	defaults := config.DefaultServeConfig
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the API server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the API server to")

	viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}

func serveRun(cmd *cobra.Command) {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, err := config.FromViper()
	if err != nil {
		presenter.Error(err, "Failed to load configuration")
		os.Exit(1)
	}

	allSkills, enabled := skills.Initialize(ctx, cfg)
	if !enabled {
		allSkills = map[string]*skills.Skill{}
	}

	manager := loadAgentManager(cmd)

	server, err := catalog.NewServer(&catalog.ServerConfig{
		Host: cfg.Serve.Host,
		Port: cfg.Serve.Port,
	}, allSkills, manager)
	if err != nil {
		presenter.Error(err, "Failed to create catalog server")
		os.Exit(1)
	}

	presenter.Info("Serving catalog API, press Ctrl+C to stop")
	if err := server.Start(ctx); err != nil {
		presenter.Error(err, "Catalog server failed")
		os.Exit(1)
	}
}
