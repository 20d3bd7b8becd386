package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/agent42-ai/agent42/pkg/envfile"
)

// Default service ports provisioned on the host
const (
	RedisPort  = 6379
	QdrantPort = 6333
)

// PlanConfig describes the target host for the server plan
type PlanConfig struct {
	Domain       string
	Port         int
	EnvFile      string
	AppBinary    string
	AppUser      string
	SkipCertbot  bool
	SkipFirewall bool

	// Root is prefixed to every absolute system path written by the plan.
	// Tests point it at a scratch directory; production leaves it empty.
	Root string

	healthAttempts uint
}

// Validate checks the plan configuration
func (c *PlanConfig) Validate() error {
	if c.Domain == "" {
		return errors.New("domain is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.AppBinary == "" {
		return errors.New("app binary path is required")
	}
	return nil
}

func (c *PlanConfig) attempts() uint {
	if c.healthAttempts == 0 {
		return 10
	}
	return c.healthAttempts
}

func (c *PlanConfig) sysPath(path string) string {
	if c.Root == "" {
		return path
	}
	return filepath.Join(c.Root, path)
}

// ServerPlan builds the provisioning steps for an Agent42 host: packages,
// Redis, Qdrant, environment file, systemd units, nginx, firewall, and TLS.
func ServerPlan(cfg PlanConfig, execer Execer) ([]Step, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid deploy configuration")
	}

	steps := []Step{
		{
			Name:      "Install system packages",
			Component: "packages",
			Check: func(ctx context.Context) (bool, string) {
				if execer.LookPath("nginx") && execer.LookPath("redis-server") {
					return true, "nginx and redis already installed"
				}
				return false, ""
			},
			Run: func(ctx context.Context) error {
				if _, err := execer.Run(ctx, "apt-get", "update", "-qq"); err != nil {
					return err
				}
				_, err := execer.Run(ctx, "apt-get", "install", "-y", "-qq", "nginx", "redis-server")
				return err
			},
		},
		{
			Name:      "Enable Redis",
			Component: "redis",
			Check: func(ctx context.Context) (bool, string) {
				if UnitActive(ctx, execer, "redis-server") {
					return true, "redis-server already active"
				}
				return false, ""
			},
			Run: func(ctx context.Context) error {
				if err := EnableUnit(ctx, execer, "redis-server"); err != nil {
					return err
				}
				return WaitForTCP(ctx, fmt.Sprintf("127.0.0.1:%d", RedisPort), cfg.attempts())
			},
		},
		{
			Name:      "Install Qdrant service",
			Component: "qdrant",
			Optional:  true,
			Fallback: []string{
				"install qdrant to /usr/local/bin/qdrant",
				"systemctl enable --now qdrant",
			},
			Check: func(ctx context.Context) (bool, string) {
				if UnitActive(ctx, execer, "qdrant") {
					return true, "qdrant already active"
				}
				return false, ""
			},
			Run: func(ctx context.Context) error {
				unit, err := RenderQdrantUnit(QdrantUnitConfig{
					User:       cfg.AppUser,
					Binary:     "/usr/local/bin/qdrant",
					ConfigPath: "/etc/qdrant/config.yaml",
				})
				if err != nil {
					return err
				}
				if err := WriteUnit(ctx, execer, cfg.sysPath("/etc/systemd/system/qdrant.service"), unit); err != nil {
					return err
				}
				if err := EnableUnit(ctx, execer, "qdrant"); err != nil {
					return err
				}
				return WaitForTCP(ctx, fmt.Sprintf("127.0.0.1:%d", QdrantPort), cfg.attempts())
			},
		},
		{
			Name:      "Write runtime environment",
			Component: "env",
			Run: func(ctx context.Context) error {
				env, err := envfile.Load(cfg.sysPath(cfg.EnvFile))
				if err != nil {
					return err
				}
				if err := env.Set("AGENT42_DOMAIN", cfg.Domain); err != nil {
					return err
				}
				if err := env.Set("AGENT42_PORT", strconv.Itoa(cfg.Port)); err != nil {
					return err
				}
				if _, ok := env.Get("REDIS_URL"); !ok {
					if err := env.Set("REDIS_URL", fmt.Sprintf("redis://localhost:%d", RedisPort)); err != nil {
						return err
					}
				}
				if _, ok := env.Get("QDRANT_URL"); !ok {
					if err := env.Set("QDRANT_URL", fmt.Sprintf("http://localhost:%d", QdrantPort)); err != nil {
						return err
					}
				}
				return env.Save()
			},
		},
		{
			Name:      "Install orchestrator service",
			Component: "app",
			Run: func(ctx context.Context) error {
				unit, err := RenderAppUnit(AppUnitConfig{
					User:       cfg.AppUser,
					WorkingDir: filepath.Dir(cfg.AppBinary),
					EnvFile:    cfg.EnvFile,
					Binary:     cfg.AppBinary,
				})
				if err != nil {
					return err
				}
				if err := WriteUnit(ctx, execer, cfg.sysPath("/etc/systemd/system/agent42.service"), unit); err != nil {
					return err
				}
				return EnableUnit(ctx, execer, "agent42")
			},
		},
		{
			Name:      "Configure nginx",
			Component: "nginx",
			Run: func(ctx context.Context) error {
				content, err := RenderNginxHTTP(cfg.Domain, cfg.Port)
				if err != nil {
					return err
				}
				available := cfg.sysPath("/etc/nginx/sites-available/agent42.conf")
				if err := WriteNginxConfig(ctx, execer, available, content); err != nil {
					return err
				}
				enabled := cfg.sysPath("/etc/nginx/sites-enabled/agent42.conf")
				if err := os.MkdirAll(filepath.Dir(enabled), 0o755); err != nil {
					return errors.Wrap(err, "failed to create sites-enabled directory")
				}
				if err := os.Symlink(available, enabled); err != nil && !os.IsExist(err) {
					return errors.Wrap(err, "failed to enable nginx site")
				}
				_, err = execer.Run(ctx, "systemctl", "reload", "nginx")
				return err
			},
		},
	}

	if !cfg.SkipFirewall {
		steps = append(steps, Step{
			Name:      "Configure firewall",
			Component: "ufw",
			Optional:  true,
			Fallback: []string{
				"ufw allow OpenSSH",
				"ufw allow 80/tcp",
				"ufw allow 443/tcp",
			},
			Run: func(ctx context.Context) error {
				for _, rule := range []string{"OpenSSH", "80/tcp", "443/tcp"} {
					if _, err := execer.Run(ctx, "ufw", "allow", rule); err != nil {
						return err
					}
				}
				return nil
			},
		})
	}

	if !cfg.SkipCertbot {
		steps = append(steps, Step{
			Name:      "Obtain TLS certificate",
			Component: "certbot",
			Optional:  true,
			Fallback: []string{
				fmt.Sprintf("certbot --nginx -d %s", cfg.Domain),
				"systemctl reload nginx",
			},
			Run: func(ctx context.Context) error {
				if _, err := execer.Run(ctx, "certbot", "--nginx", "--non-interactive", "--agree-tos",
					"--register-unsafely-without-email", "-d", cfg.Domain); err != nil {
					return err
				}

				content, err := RenderNginxHTTPS(cfg.Domain, cfg.Port)
				if err != nil {
					return err
				}
				available := cfg.sysPath("/etc/nginx/sites-available/agent42.conf")
				if err := WriteNginxConfig(ctx, execer, available, content); err != nil {
					return err
				}
				_, err = execer.Run(ctx, "systemctl", "reload", "nginx")
				return err
			},
		})
	}

	steps = append(steps, Step{
		Name:      "Wait for orchestrator",
		Component: "app-health",
		Optional:  true,
		Fallback: []string{
			"journalctl -u agent42 -f",
		},
		Run: func(ctx context.Context) error {
			return WaitForTCP(ctx, fmt.Sprintf("127.0.0.1:%d", cfg.Port), cfg.attempts())
		},
	})

	return steps, nil
}
