package envfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# Agent42 runtime configuration
AGENT42_PORT=8042

# Redis
REDIS_URL=redis://localhost:6379
export QDRANT_URL='http://localhost:6333'
API_KEY="secret value"
`

func loadSample(t *testing.T) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	f, err := Load(path)
	require.NoError(t, err)
	return f
}

func TestLoad(t *testing.T) {
	t.Run("existing file", func(t *testing.T) {
		f := loadSample(t)
		assert.Equal(t, []string{"AGENT42_PORT", "REDIS_URL", "QDRANT_URL", "API_KEY"}, f.Keys())
	})

	t.Run("missing file yields empty file", func(t *testing.T) {
		f, err := Load(filepath.Join(t.TempDir(), "nope", ".env"))
		require.NoError(t, err)
		assert.Empty(t, f.Keys())
		assert.Equal(t, "", f.String())
	})
}

func TestGet(t *testing.T) {
	f := loadSample(t)

	t.Run("plain value", func(t *testing.T) {
		v, ok := f.Get("AGENT42_PORT")
		require.True(t, ok)
		assert.Equal(t, "8042", v)
	})

	t.Run("single-quoted value with export prefix", func(t *testing.T) {
		v, ok := f.Get("QDRANT_URL")
		require.True(t, ok)
		assert.Equal(t, "http://localhost:6333", v)
	})

	t.Run("double-quoted value", func(t *testing.T) {
		v, ok := f.Get("API_KEY")
		require.True(t, ok)
		assert.Equal(t, "secret value", v)
	})

	t.Run("missing key", func(t *testing.T) {
		_, ok := f.Get("MISSING")
		assert.False(t, ok)
	})
}

func TestSet(t *testing.T) {
	t.Run("update preserves position and surroundings", func(t *testing.T) {
		f := loadSample(t)
		require.NoError(t, f.Set("AGENT42_PORT", "9000"))

		content := f.String()
		assert.Contains(t, content, "AGENT42_PORT=9000")
		assert.Contains(t, content, "# Agent42 runtime configuration")
		assert.Contains(t, content, "# Redis")
		assert.Less(t,
			strings.Index(content, "AGENT42_PORT=9000"),
			strings.Index(content, "REDIS_URL="))
	})

	t.Run("append new key", func(t *testing.T) {
		f := loadSample(t)
		require.NoError(t, f.Set("DOMAIN", "agents.example.com"))
		v, ok := f.Get("DOMAIN")
		require.True(t, ok)
		assert.Equal(t, "agents.example.com", v)
	})

	t.Run("values with spaces are quoted", func(t *testing.T) {
		f := loadSample(t)
		require.NoError(t, f.Set("MOTD", "hello world"))
		assert.Contains(t, f.String(), `MOTD="hello world"`)

		v, ok := f.Get("MOTD")
		require.True(t, ok)
		assert.Equal(t, "hello world", v)
	})

	t.Run("invalid keys rejected", func(t *testing.T) {
		f := loadSample(t)
		assert.Error(t, f.Set("", "x"))
		assert.Error(t, f.Set("BAD KEY", "x"))
		assert.Error(t, f.Set("BAD=KEY", "x"))
	})
}

func TestUnset(t *testing.T) {
	f := loadSample(t)

	assert.True(t, f.Unset("REDIS_URL"))
	_, ok := f.Get("REDIS_URL")
	assert.False(t, ok)
	// comment above the removed entry stays
	assert.Contains(t, f.String(), "# Redis")

	assert.False(t, f.Unset("REDIS_URL"))
}

func TestRoundTrip(t *testing.T) {
	// An untouched load/save cycle must be byte-identical.
	f := loadSample(t)
	assert.Equal(t, sample, f.String())

	require.NoError(t, f.Save())
	content, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, sample, string(content))

	t.Run("no trailing newline", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		raw := "A=1\nB=2"
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

		f, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, f.Save())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, raw, string(content))
	})

	t.Run("trailing blank line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		raw := "A=1\n\n"
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

		f, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, f.Save())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, raw, string(content))
	})
}

func TestSaveAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newdir", ".env")
	f, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, f.Set("KEY", "value"))
	require.NoError(t, f.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := Load(path)
	require.NoError(t, err)
	v, ok := reloaded.Get("KEY")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}
