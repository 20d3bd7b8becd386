package deploy

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecer records commands and fails the ones listed in failOn
// (keyed by "name arg1 arg2 ...").
type fakeExecer struct {
	commands [][]string
	hasBins  map[string]bool
	failOn   map[string]string
	output   map[string]string
}

func (f *fakeExecer) Run(_ context.Context, name string, args ...string) (string, error) {
	cmd := append([]string{name}, args...)
	f.commands = append(f.commands, cmd)

	key := strings.Join(cmd, " ")
	if msg, ok := f.failOn[key]; ok {
		return msg, errors.Errorf("command '%s' failed: %s", key, msg)
	}
	return f.output[key], nil
}

func (f *fakeExecer) LookPath(name string) bool {
	return f.hasBins[name]
}

func (f *fakeExecer) ran(key string) bool {
	for _, cmd := range f.commands {
		if strings.Join(cmd, " ") == key {
			return true
		}
	}
	return false
}

func TestSystemExecer(t *testing.T) {
	ctx := context.Background()
	execer := SystemExecer{}

	t.Run("captures output", func(t *testing.T) {
		output, err := execer.Run(ctx, "echo", "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", output)
	})

	t.Run("wraps failures with output", func(t *testing.T) {
		_, err := execer.Run(ctx, "sh", "-c", "echo oops >&2; exit 3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oops")
	})

	t.Run("look path", func(t *testing.T) {
		assert.True(t, execer.LookPath("sh"))
		assert.False(t, execer.LookPath("definitely-not-a-real-binary-42"))
	})
}

func TestDryRunExecer(t *testing.T) {
	ctx := context.Background()
	execer := DryRunExecer{}

	output, err := execer.Run(ctx, "rm", "-rf", "/")
	require.NoError(t, err)
	assert.Empty(t, output)
	assert.True(t, execer.LookPath("anything"))
}
