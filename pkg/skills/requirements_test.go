package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRequirements(t *testing.T) {
	t.Run("no requirements", func(t *testing.T) {
		assert.NoError(t, CheckRequirements(&Skill{Name: "plain"}))
	})

	t.Run("satisfied requirements", func(t *testing.T) {
		t.Setenv("AGENT42_TEST_TOKEN", "secret")
		skill := &Skill{
			Name:         "ok",
			RequiredBins: []string{"sh"},
			RequiredEnv:  []string{"AGENT42_TEST_TOKEN"},
		}
		assert.NoError(t, CheckRequirements(skill))
	})

	t.Run("missing binary", func(t *testing.T) {
		skill := &Skill{Name: "bad", RequiredBins: []string{"definitely-not-a-real-binary-42"}}
		err := CheckRequirements(skill)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "definitely-not-a-real-binary-42")
	})

	t.Run("empty env var counts as unset", func(t *testing.T) {
		t.Setenv("AGENT42_EMPTY_VAR", "")
		skill := &Skill{Name: "bad", RequiredEnv: []string{"AGENT42_EMPTY_VAR"}}
		err := CheckRequirements(skill)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AGENT42_EMPTY_VAR")
	})

	t.Run("failures aggregate", func(t *testing.T) {
		skill := &Skill{
			Name:         "bad",
			RequiredBins: []string{"definitely-not-a-real-binary-42"},
			RequiredEnv:  []string{"AGENT42_UNSET_VAR_FOR_TEST"},
		}
		err := CheckRequirements(skill)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "definitely-not-a-real-binary-42")
		assert.Contains(t, err.Error(), "AGENT42_UNSET_VAR_FOR_TEST")
	})
}

func TestCheckAllRequirements(t *testing.T) {
	skills := map[string]*Skill{
		"good": {Name: "good"},
		"bad":  {Name: "bad", RequiredBins: []string{"definitely-not-a-real-binary-42"}},
	}

	failures := CheckAllRequirements(skills)
	assert.Len(t, failures, 1)
	assert.Contains(t, failures, "bad")
	assert.NotContains(t, failures, "good")
}
