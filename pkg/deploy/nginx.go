package deploy

import (
	"context"
	"embed"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//go:embed templates/*
var templateFS embed.FS

// placeholderPattern matches any surviving __NAME__ token after substitution
var placeholderPattern = regexp.MustCompile(`__[A-Z][A-Z0-9_]*__`)

// RenderNginxHTTP renders the HTTP-only server block for the domain and port
func RenderNginxHTTP(domain string, port int) (string, error) {
	return renderNginx("templates/nginx-http.conf", domain, port)
}

// RenderNginxHTTPS renders the TLS server block used after certbot has
// provisioned certificates for the domain.
func RenderNginxHTTPS(domain string, port int) (string, error) {
	return renderNginx("templates/nginx-https.conf", domain, port)
}

func renderNginx(templatePath, domain string, port int) (string, error) {
	if domain == "" {
		return "", errors.New("domain is required")
	}
	if port < 1 || port > 65535 {
		return "", errors.Errorf("port must be between 1 and 65535, got %d", port)
	}

	raw, err := templateFS.ReadFile(templatePath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read template '%s'", templatePath)
	}

	content := strings.ReplaceAll(string(raw), "__DOMAIN__", domain)
	content = strings.ReplaceAll(content, "__PORT__", strconv.Itoa(port))

	if err := ValidatePlaceholders(content); err != nil {
		return "", err
	}

	return content, nil
}

// ValidatePlaceholders fails if any literal __NAME__ token survives
// substitution.
func ValidatePlaceholders(content string) error {
	if leftover := placeholderPattern.FindAllString(content, -1); len(leftover) > 0 {
		return errors.Errorf("unsubstituted placeholders remain: %s", strings.Join(leftover, ", "))
	}
	return nil
}

// WriteNginxConfig writes the rendered config and validates it with nginx -t
// when an nginx binary is available.
func WriteNginxConfig(ctx context.Context, execer Execer, path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create nginx config directory")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write nginx config '%s'", path)
	}

	if !execer.LookPath("nginx") {
		return nil
	}

	if output, err := execer.Run(ctx, "nginx", "-t"); err != nil {
		return errors.Wrapf(err, "nginx config validation failed: %s", output)
	}
	return nil
}
