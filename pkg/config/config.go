// Package config holds the typed runtime configuration for agent42, loaded
// from the config file, environment variables, and CLI flags via viper.
package config

import (
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the root configuration
type Config struct {
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Skills    *SkillsConfig `mapstructure:"skills"`
	Agents    *AgentsConfig `mapstructure:"agents"`
	Deploy    DeployConfig  `mapstructure:"deploy"`
	Serve     ServeConfig   `mapstructure:"serve"`
}

// SkillsConfig groups skill-related settings
type SkillsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Dirs    []string `mapstructure:"dirs"`
	Allowed []string `mapstructure:"allowed"`
}

// AgentsConfig groups agent-profile settings
type AgentsConfig struct {
	Dirs []string `mapstructure:"dirs"`
}

// DeployConfig holds provisioning defaults
type DeployConfig struct {
	Domain       string `mapstructure:"domain"`
	Port         int    `mapstructure:"port"`
	StateDir     string `mapstructure:"state_dir"`
	EnvFile      string `mapstructure:"env_file"`
	AppBinary    string `mapstructure:"app_binary"`
	AppUser      string `mapstructure:"app_user"`
	SkipCertbot  bool   `mapstructure:"skip_certbot"`
	SkipFirewall bool   `mapstructure:"skip_firewall"`
}

// ServeConfig holds the catalog API server settings
type ServeConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DefaultDeployConfig are the provisioning defaults applied when the config
// file leaves them unset.
var DefaultDeployConfig = DeployConfig{
	Port:     8042,
	StateDir: "/var/lib/agent42",
	EnvFile:  "/opt/agent42/.env",
	AppUser:  "agent42",
}

// DefaultServeConfig are the catalog server defaults.
var DefaultServeConfig = ServeConfig{
	Host: "127.0.0.1",
	Port: 8043,
}

// FromViper loads the configuration from viper's merged sources and applies
// defaults for unset sections.
func FromViper() (*Config, error) {
	var config Config

	// Use viper's automatic unmarshaling with mapstructure tags. A custom
	// decoder is needed so comma-separated env values decode into slices.
	if err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
		),
	)); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "fmt"
	}
	if config.Deploy.Port == 0 {
		config.Deploy.Port = DefaultDeployConfig.Port
	}
	if config.Deploy.StateDir == "" {
		config.Deploy.StateDir = DefaultDeployConfig.StateDir
	}
	if config.Deploy.EnvFile == "" {
		config.Deploy.EnvFile = DefaultDeployConfig.EnvFile
	}
	if config.Deploy.AppUser == "" {
		config.Deploy.AppUser = DefaultDeployConfig.AppUser
	}
	if config.Serve.Host == "" {
		config.Serve.Host = DefaultServeConfig.Host
	}
	if config.Serve.Port == 0 {
		config.Serve.Port = DefaultServeConfig.Port
	}
}

// Validate checks the configuration for values that can never work,
// aggregating every problem into one error.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Deploy.Port < 1 || c.Deploy.Port > 65535 {
		result = multierror.Append(result, errors.Errorf("deploy.port must be between 1 and 65535, got %d", c.Deploy.Port))
	}
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		result = multierror.Append(result, errors.Errorf("serve.port must be between 1 and 65535, got %d", c.Serve.Port))
	}
	if c.LogFormat != "fmt" && c.LogFormat != "text" && c.LogFormat != "json" {
		result = multierror.Append(result, errors.Errorf("log_format must be fmt, text, or json, got '%s'", c.LogFormat))
	}

	return result.ErrorOrNil()
}
