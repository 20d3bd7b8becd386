package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/agent42-ai/agent42/pkg/config"
	"github.com/agent42-ai/agent42/pkg/envfile"
	"github.com/agent42-ai/agent42/pkg/presenter"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage the application .env file",
	Long: `Read and edit the application's .env file without disturbing comments,
blank lines, or the order of existing entries.

Examples:
  agent42 env list
  agent42 env get AGENT42_DOMAIN
  agent42 env set AGENT42_PORT 9000
  agent42 env unset QDRANT_URL --file /opt/agent42/.env`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the keys defined in the .env file",
	Run: func(cmd *cobra.Command, _ []string) {
		env := loadEnvFile(cmd)
		keys := env.Keys()
		if len(keys) == 0 {
			presenter.Info("No entries defined")
			return
		}
		for _, key := range keys {
			value, _ := env.Get(key)
			fmt.Printf("%s=%s\n", key, value)
		}
	},
}

var envGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value of a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnvFile(cmd)
		value, ok := env.Get(args[0])
		if !ok {
			presenter.Error(errors.Errorf("key '%s' not found in %s", args[0], env.Path()), "Key not found")
			os.Exit(1)
		}
		fmt.Println(value)
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a key, preserving the rest of the file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnvFile(cmd)
		if err := env.Set(args[0], args[1]); err != nil {
			presenter.Error(err, "Failed to set value")
			os.Exit(1)
		}
		if err := env.Save(); err != nil {
			presenter.Error(err, "Failed to write .env file")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Set %s in %s", args[0], env.Path()))
	},
}

var envUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a key from the .env file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnvFile(cmd)
		if !env.Unset(args[0]) {
			presenter.Warning(fmt.Sprintf("Key '%s' was not set", args[0]))
			return
		}
		if err := env.Save(); err != nil {
			presenter.Error(err, "Failed to write .env file")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Removed %s from %s", args[0], env.Path()))
	},
}

func init() {
	envCmd.PersistentFlags().StringP("file", "f", "", "Path to the .env file (defaults to the configured deploy env file)")

	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envGetCmd)
	envCmd.AddCommand(envSetCmd)
	envCmd.AddCommand(envUnsetCmd)
	rootCmd.AddCommand(envCmd)
}

func loadEnvFile(cmd *cobra.Command) *envfile.File {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		cfg, err := config.FromViper()
		if err != nil {
			presenter.Error(err, "Failed to load configuration")
			os.Exit(1)
		}
		path = cfg.Deploy.EnvFile
	}

	env, err := envfile.Load(path)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to load %s", path))
		os.Exit(1)
	}
	return env
}
