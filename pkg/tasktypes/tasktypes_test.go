package tasktypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("canonical", func(t *testing.T) {
		got, err := Parse("CODING")
		require.NoError(t, err)
		assert.Equal(t, Coding, got)
	})

	t.Run("case-insensitive", func(t *testing.T) {
		got, err := Parse("deployment")
		require.NoError(t, err)
		assert.Equal(t, Deployment, got)
	})

	t.Run("hyphens accepted", func(t *testing.T) {
		got, err := Parse("data-analysis")
		require.NoError(t, err)
		assert.Equal(t, DataAnalysis, got)
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		got, err := Parse("  research ")
		require.NoError(t, err)
		assert.Equal(t, Research, got)
	})

	t.Run("unknown value errors", func(t *testing.T) {
		_, err := Parse("JUGGLING")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JUGGLING")
		assert.Contains(t, err.Error(), "CODING")
	})
}

func TestValid(t *testing.T) {
	assert.True(t, Coding.Valid())
	assert.True(t, General.Valid())
	assert.False(t, TaskType("coding").Valid())
	assert.False(t, TaskType("").Valid())
}

func TestAll(t *testing.T) {
	types := All()
	assert.Len(t, types, 7)
	assert.Equal(t, Coding, types[0])
	assert.Equal(t, General, types[len(types)-1])

	// mutation of the returned slice must not affect the package
	types[0] = TaskType("MUTATED")
	assert.Equal(t, Coding, All()[0])
}
