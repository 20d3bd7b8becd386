package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderNginxHTTP(t *testing.T) {
	t.Run("substitutes domain and port", func(t *testing.T) {
		content, err := RenderNginxHTTP("agents.example.com", 8042)
		require.NoError(t, err)
		assert.Contains(t, content, "server_name agents.example.com;")
		assert.Contains(t, content, "proxy_pass http://127.0.0.1:8042;")
		assert.NotContains(t, content, "__DOMAIN__")
		assert.NotContains(t, content, "__PORT__")
	})

	t.Run("rejects empty domain", func(t *testing.T) {
		_, err := RenderNginxHTTP("", 8042)
		assert.Error(t, err)
	})

	t.Run("rejects invalid port", func(t *testing.T) {
		_, err := RenderNginxHTTP("agents.example.com", 0)
		assert.Error(t, err)
		_, err = RenderNginxHTTP("agents.example.com", 70000)
		assert.Error(t, err)
	})
}

func TestRenderNginxHTTPS(t *testing.T) {
	content, err := RenderNginxHTTPS("agents.example.com", 8042)
	require.NoError(t, err)
	assert.Contains(t, content, "listen 443 ssl")
	assert.Contains(t, content, "/etc/letsencrypt/live/agents.example.com/fullchain.pem")
	assert.Contains(t, content, "return 301 https://$host$request_uri;")
	assert.NoError(t, ValidatePlaceholders(content))
}

func TestValidatePlaceholders(t *testing.T) {
	t.Run("clean content passes", func(t *testing.T) {
		assert.NoError(t, ValidatePlaceholders("server_name example.com;"))
	})

	t.Run("surviving token fails", func(t *testing.T) {
		err := ValidatePlaceholders("server_name __DOMAIN__;")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "__DOMAIN__")
	})

	t.Run("dunder in nginx variables is not a placeholder", func(t *testing.T) {
		assert.NoError(t, ValidatePlaceholders("proxy_set_header Host $host;"))
	})
}

func TestWriteNginxConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("writes file and validates when nginx is present", func(t *testing.T) {
		execer := &fakeExecer{hasBins: map[string]bool{"nginx": true}}
		path := filepath.Join(t.TempDir(), "sites-available", "agent42.conf")

		require.NoError(t, WriteNginxConfig(ctx, execer, path, "server {}"))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "server {}", string(content))
		assert.Equal(t, [][]string{{"nginx", "-t"}}, execer.commands)
	})

	t.Run("skips validation when nginx is absent", func(t *testing.T) {
		execer := &fakeExecer{}
		path := filepath.Join(t.TempDir(), "agent42.conf")

		require.NoError(t, WriteNginxConfig(ctx, execer, path, "server {}"))
		assert.Empty(t, execer.commands)
	})

	t.Run("propagates nginx -t failure", func(t *testing.T) {
		execer := &fakeExecer{
			hasBins: map[string]bool{"nginx": true},
			failOn:  map[string]string{"nginx -t": "syntax error"},
		}
		path := filepath.Join(t.TempDir(), "agent42.conf")

		err := WriteNginxConfig(ctx, execer, path, "server {")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})
}
