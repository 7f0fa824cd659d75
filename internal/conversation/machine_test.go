package conversation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owasp-blt/lettuce/internal/catalog"
	"github.com/owasp-blt/lettuce/internal/recommend"
)

func testMachine(t *testing.T) *Machine {
	t.Helper()
	cat := catalog.New([]catalog.Project{
		{
			ID:           "www-project-secure-coding-dojo",
			Name:         "Secure Coding Dojo",
			Description:  "A platform for delivering secure coding training to software development teams.",
			URL:          "https://owasp.org/www-project-secure-coding-dojo/",
			Technologies: []string{"python", "java"},
			Missions:     []string{"learning", "training"},
			Level:        catalog.LevelBeginner,
			Type:         catalog.TypeTraining,
		},
		{
			ID:           "www-project-juice-shop",
			Name:         "Juice Shop",
			Description:  "Probably the most modern and sophisticated insecure web application for security trainings.",
			URL:          "https://owasp.org/www-project-juice-shop/",
			Technologies: []string{"javascript", "nodejs"},
			Missions:     []string{"learning", "testing", "ctf"},
			Level:        catalog.LevelBeginner,
			Type:         catalog.TypeVulnerableApp,
		},
		{
			ID:           "www-project-asvs",
			Name:         "Asvs",
			Description:  "Application Security Verification Standard.",
			URL:          "https://owasp.org/www-project-asvs/",
			Technologies: []string{},
			Missions:     []string{"documentation", "standards"},
			Level:        catalog.LevelIntermediate,
			Type:         catalog.TypeStandard,
		},
	}, zerolog.Nop())
	engine := recommend.New(cat, recommend.Config{}, zerolog.Nop())
	return NewMachine(engine, 3, zerolog.Nop())
}

func TestNonTriggerTextLeavesStageUnchanged(t *testing.T) {
	m := testMachine(t)
	conv := newConversation("U1")

	res, ok := m.Advance(conv, TriggerMessage{Text: "what's the weather like"})

	require.True(t, ok)
	assert.Equal(t, StageInitial, conv.Stage)
	assert.Contains(t, res.Reply.Text, "recommend")
}

func TestTriggerWordOpensPreferenceChoice(t *testing.T) {
	m := testMachine(t)

	for _, text := range []string{"recommend", "HELP me", "I'm looking for something", "can you find a Project?"} {
		conv := newConversation("U1")
		res, ok := m.Advance(conv, TriggerMessage{Text: text})

		require.True(t, ok, "text %q should trigger", text)
		assert.Equal(t, StagePreferenceChoice, conv.Stage)
		require.NotNil(t, res.Reply)
		assert.Len(t, res.Reply.Options, 2)
	}
}

// Full technology walk: trigger, path, python, beginner, training.
func TestTechnologyPathCollectsAndCompletes(t *testing.T) {
	m := testMachine(t)
	conv := newConversation("U1")

	steps := []Action{
		TriggerMessage{Text: "recommend"},
		ChoosePath{Path: PathTechnology},
		ChooseTechnology{Technology: "python"},
		ChooseDifficulty{Level: catalog.LevelBeginner},
		ChooseProjectType{ProjectType: catalog.TypeTraining},
	}
	var last Result
	for _, a := range steps {
		res, ok := m.Advance(conv, a)
		require.True(t, ok)
		last = res
	}

	stage, collected := conv.Snapshot()
	assert.Equal(t, StageCompleted, stage)
	assert.Equal(t, map[string]string{
		"preference":   "technology",
		"technology":   "python",
		"difficulty":   "beginner",
		"project_type": "training",
	}, collected)

	require.NotNil(t, last.Reply)
	assert.True(t, last.Completed)
	assert.Equal(t, PathTechnology, last.Path)
	require.NotEmpty(t, last.Reply.Entries)
	assert.Equal(t, "Secure Coding Dojo", last.Reply.Entries[0].Name)
}

func TestMissionPathCollectsAndCompletes(t *testing.T) {
	m := testMachine(t)
	conv := newConversation("U1")

	for _, a := range []Action{
		TriggerMessage{Text: "start"},
		ChoosePath{Path: PathMission},
	} {
		_, ok := m.Advance(conv, a)
		require.True(t, ok)
	}
	assert.Equal(t, StageMissionGoal, conv.Stage)

	_, ok := m.Advance(conv, ChooseGoal{Goal: "documentation"})
	require.True(t, ok)
	assert.Equal(t, StageMissionContribution, conv.Stage)

	res, ok := m.Advance(conv, ChooseContribution{Contribution: "research"})
	require.True(t, ok)
	assert.Equal(t, StageCompleted, conv.Stage)
	assert.True(t, res.Completed)
	assert.Equal(t, PathMission, res.Path)
	require.NotEmpty(t, res.Reply.Entries)
	assert.Equal(t, "Asvs", res.Reply.Entries[0].Name)
}

func TestIllegalActionsAreSilentlyIgnored(t *testing.T) {
	m := testMachine(t)
	conv := newConversation("U1")

	// Difficulty click before any path is chosen.
	res, ok := m.Advance(conv, ChooseDifficulty{Level: catalog.LevelBeginner})
	assert.False(t, ok)
	assert.Nil(t, res.Reply)
	assert.Equal(t, StageInitial, conv.Stage)

	_, ok = m.Advance(conv, TriggerMessage{Text: "recommend"})
	require.True(t, ok)

	// Stale technology button after already being in preference choice.
	res, ok = m.Advance(conv, ChooseContribution{Contribution: "code"})
	assert.False(t, ok)
	assert.Nil(t, res.Reply)
	assert.Equal(t, StagePreferenceChoice, conv.Stage)
	_, collected := conv.Snapshot()
	assert.Empty(t, collected)
}

func TestRestartOnlyLegalFromCompleted(t *testing.T) {
	m := testMachine(t)
	conv := newConversation("U1")

	_, ok := m.Advance(conv, Restart{})
	assert.False(t, ok)

	walkToCompleted(t, m, conv)

	res, ok := m.Advance(conv, Restart{})
	require.True(t, ok)
	assert.Equal(t, StagePreferenceChoice, conv.Stage)
	_, collected := conv.Snapshot()
	assert.Empty(t, collected, "restart clears collected data")
	assert.Len(t, res.Reply.Options, 2)
}

func TestEndIsLegalFromAnyStage(t *testing.T) {
	m := testMachine(t)

	for _, setup := range [][]Action{
		nil,
		{TriggerMessage{Text: "recommend"}},
		{TriggerMessage{Text: "recommend"}, ChoosePath{Path: PathTechnology}},
	} {
		conv := newConversation("U1")
		for _, a := range setup {
			_, ok := m.Advance(conv, a)
			require.True(t, ok)
		}

		res, ok := m.Advance(conv, End{})
		require.True(t, ok)
		assert.True(t, res.EndSession)
		assert.Equal(t, StageInitial, conv.Stage)
	}
}

func TestNoMatchesFallsBackInsteadOfEmptyReply(t *testing.T) {
	m := testMachine(t)
	conv := newConversation("U1")

	for _, a := range []Action{
		TriggerMessage{Text: "recommend"},
		ChoosePath{Path: PathTechnology},
		ChooseTechnology{Technology: "cobol"},
		ChooseDifficulty{Level: catalog.LevelAdvanced},
	} {
		_, ok := m.Advance(conv, a)
		require.True(t, ok)
	}

	res, ok := m.Advance(conv, ChooseProjectType{ProjectType: catalog.TypeTool})
	require.True(t, ok)
	assert.True(t, res.Reply.Fallback)
	assert.NotEmpty(t, res.Reply.Entries, "non-empty catalog must always yield suggestions")
}

func walkToCompleted(t *testing.T, m *Machine, conv *Conversation) {
	t.Helper()
	for _, a := range []Action{
		TriggerMessage{Text: "recommend"},
		ChoosePath{Path: PathTechnology},
		ChooseTechnology{Technology: "python"},
		ChooseDifficulty{Level: catalog.LevelBeginner},
		ChooseProjectType{ProjectType: catalog.TypeTraining},
	} {
		_, ok := m.Advance(conv, a)
		require.True(t, ok)
	}
	require.Equal(t, StageCompleted, conv.Stage)
}
