package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeActionVariants(t *testing.T) {
	cases := []struct {
		actionID string
		value    string
		want     Action
	}{
		{"rec_path_technology", "technology", ChoosePath{Path: "technology"}},
		{"rec_path_mission", "mission", ChoosePath{Path: "mission"}},
		{"rec_tech_python", "python", ChooseTechnology{Technology: "python"}},
		{"rec_diff_beginner", "beginner", ChooseDifficulty{Level: "beginner"}},
		{"rec_type_training", "training", ChooseProjectType{ProjectType: "training"}},
		{"rec_mission_learning", "learning", ChooseGoal{Goal: "learning"}},
		{"rec_contrib_code", "code", ChooseContribution{Contribution: "code"}},
		{"rec_restart", "restart", Restart{}},
		{"rec_done", "done", End{}},
	}
	for _, tc := range cases {
		got, ok := DecodeAction(tc.actionID, tc.value)
		require.True(t, ok, "action %q should decode", tc.actionID)
		assert.Equal(t, tc.want, got)
	}
}

func TestDecodeActionFallsBackToIDSuffix(t *testing.T) {
	got, ok := DecodeAction("rec_tech_javascript", "")
	require.True(t, ok)
	assert.Equal(t, ChooseTechnology{Technology: "javascript"}, got)
}

func TestDecodeActionRejectsUnknownIDs(t *testing.T) {
	for _, id := range []string{"", "approve_request", "rec", "other_rec_tech_python"} {
		_, ok := DecodeAction(id, "x")
		assert.False(t, ok, "id %q should not decode", id)
	}
}

func TestIsTriggerCaseInsensitiveSubstring(t *testing.T) {
	assert.True(t, IsTrigger("RECOMMEND something"))
	assert.True(t, IsTrigger("i am LOOKING for a challenge"))
	assert.True(t, IsTrigger("helpful"))
	assert.False(t, IsTrigger("good morning"))
	assert.False(t, IsTrigger(""))
}
