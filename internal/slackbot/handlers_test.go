package slackbot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owasp-blt/lettuce/internal/catalog"
	"github.com/owasp-blt/lettuce/internal/conversation"
	"github.com/owasp-blt/lettuce/internal/metrics"
	"github.com/owasp-blt/lettuce/internal/poll"
	"github.com/owasp-blt/lettuce/internal/recommend"
	"github.com/owasp-blt/lettuce/internal/store"
)

// mockSlackAPI implements BotAPI for testing.
type mockSlackAPI struct {
	posted  []postedMessage
	updated []updatedMessage
	opened  [][]string
}

type postedMessage struct {
	ChannelID string
	Options   []slack.MsgOption
}

type updatedMessage struct {
	ChannelID string
	Timestamp string
	Options   []slack.MsgOption
}

func (m *mockSlackAPI) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	m.posted = append(m.posted, postedMessage{ChannelID: channelID, Options: options})
	return channelID, "1234567890.123456", nil
}

func (m *mockSlackAPI) UpdateMessage(channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error) {
	m.updated = append(m.updated, updatedMessage{ChannelID: channelID, Timestamp: timestamp, Options: options})
	return channelID, timestamp, "", nil
}

func (m *mockSlackAPI) OpenConversation(params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error) {
	m.opened = append(m.opened, params.Users)
	ch := &slack.Channel{}
	ch.ID = "D123DM"
	return ch, false, false, nil
}

func (m *mockSlackAPI) AuthTest() (*slack.AuthTestResponse, error) {
	return &slack.AuthTestResponse{UserID: "U123BOT"}, nil
}

func testProjects() []catalog.Project {
	return []catalog.Project{
		{
			ID:           "www-project-juice-shop",
			Name:         "Juice Shop",
			Description:  "Probably the most modern and sophisticated insecure web application.",
			URL:          "https://owasp.org/www-project-juice-shop/",
			Technologies: []string{"javascript"},
			Missions:     []string{"learning", "ctf"},
			Level:        catalog.LevelBeginner,
			Type:         catalog.TypeVulnerableApp,
		},
		{
			ID:           "www-project-zap",
			Name:         "Zap",
			Description:  "The world's most widely used web application scanner.",
			URL:          "https://owasp.org/www-project-zap/",
			Technologies: []string{"java"},
			Missions:     []string{"security-tool", "testing"},
			Level:        catalog.LevelIntermediate,
			Type:         catalog.TypeTool,
		},
	}
}

func newTestHandler(t *testing.T) (*Handler, *mockSlackAPI) {
	t.Helper()
	logger := zerolog.Nop()

	cat := catalog.New(testProjects(), logger)
	engine := recommend.New(cat, recommend.Config{}, logger)
	machine := conversation.NewMachine(engine, 3, logger)
	sessions := conversation.NewManager(100, time.Hour, logger)

	st, err := store.New(filepath.Join(t.TempDir(), "bot-test.db"), zerolog.New(os.Stderr))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	polls := poll.NewService(st, logger)

	h := NewHandler(logger, NewMiddleware(logger, 100, time.Minute),
		cat, machine, sessions, polls, metrics.New(), "C0CONTRIB")
	mock := &mockSlackAPI{}
	h.api = mock
	h.SetBotUserID("U123BOT")
	return h, mock
}

func messageEvent(ev interface{}) slackevents.EventsAPIInnerEvent {
	return slackevents.EventsAPIInnerEvent{Data: ev}
}

func TestDirectMessageTriggerStartsConversation(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleCallbackEvent(messageEvent(&slackevents.MessageEvent{
		User: "U1", Channel: "D1", ChannelType: "im", Text: "recommend me something",
	}))

	require.Len(t, mock.posted, 1)
	assert.Equal(t, "D1", mock.posted[0].ChannelID)

	conv, ok := h.sessions.Peek("U1")
	require.True(t, ok)
	assert.Equal(t, conversation.StagePreferenceChoice, conv.Stage)
}

func TestDirectMessageNonTriggerSendsHelpWithoutSessionProgress(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleCallbackEvent(messageEvent(&slackevents.MessageEvent{
		User: "U1", Channel: "D1", ChannelType: "im", Text: "good morning",
	}))

	require.Len(t, mock.posted, 1)
	conv, ok := h.sessions.Peek("U1")
	require.True(t, ok)
	assert.Equal(t, conversation.StageInitial, conv.Stage)
}

func TestBotOwnMessagesIgnored(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleCallbackEvent(messageEvent(&slackevents.MessageEvent{
		User: "U123BOT", Channel: "D1", ChannelType: "im", Text: "recommend",
	}))

	assert.Empty(t, mock.posted)
}

func TestChannelContributionKeywordAnswersInThread(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleCallbackEvent(messageEvent(&slackevents.MessageEvent{
		User: "U1", Channel: "C1", ChannelType: "channel",
		Text: "how can I start contributing?", TimeStamp: "111.222",
	}))

	require.Len(t, mock.posted, 1)
	assert.Equal(t, "C1", mock.posted[0].ChannelID)
}

func TestChannelChatterIgnored(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleCallbackEvent(messageEvent(&slackevents.MessageEvent{
		User: "U1", Channel: "C1", ChannelType: "channel", Text: "lunch anyone?",
	}))

	assert.Empty(t, mock.posted)
}

func TestTeamJoinOpensDMAndWelcomes(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleCallbackEvent(messageEvent(&slackevents.TeamJoinEvent{
		User: &slack.User{ID: "UNEW"},
	}))

	require.Len(t, mock.opened, 1)
	assert.Equal(t, []string{"UNEW"}, mock.opened[0])
	require.Len(t, mock.posted, 1)
	assert.Equal(t, "D123DM", mock.posted[0].ChannelID)
}

func interactionEvent(userID, channelID, messageTS, actionID, value string) socketmode.Event {
	callback := slack.InteractionCallback{
		User: slack.User{ID: userID},
	}
	callback.Channel.ID = channelID
	callback.Message.Timestamp = messageTS
	callback.ActionCallback.BlockActions = []*slack.BlockAction{
		{ActionID: actionID, Value: value},
	}
	return socketmode.Event{Type: socketmode.EventTypeInteractive, Data: callback}
}

func TestInteractionAdvancesConversationInPlace(t *testing.T) {
	h, mock := newTestHandler(t)

	// Start the flow via DM.
	h.handleCallbackEvent(messageEvent(&slackevents.MessageEvent{
		User: "U1", Channel: "D1", ChannelType: "im", Text: "recommend",
	}))
	require.Len(t, mock.posted, 1)

	h.handleInteraction(context.Background(),
		interactionEvent("U1", "D1", "100.200", "rec_path_technology", "technology"))

	require.Len(t, mock.updated, 1)
	assert.Equal(t, "100.200", mock.updated[0].Timestamp)

	conv, ok := h.sessions.Peek("U1")
	require.True(t, ok)
	assert.Equal(t, conversation.StageTechStack, conv.Stage)
}

func TestStaleInteractionLeavesMessageAlone(t *testing.T) {
	h, mock := newTestHandler(t)

	// Difficulty click with no conversation under way.
	h.handleInteraction(context.Background(),
		interactionEvent("U1", "D1", "100.200", "rec_diff_beginner", "beginner"))

	assert.Empty(t, mock.updated)
	assert.Empty(t, mock.posted)
}

func TestDoneInteractionEndsSession(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleCallbackEvent(messageEvent(&slackevents.MessageEvent{
		User: "U1", Channel: "D1", ChannelType: "im", Text: "recommend",
	}))
	h.handleInteraction(context.Background(),
		interactionEvent("U1", "D1", "100.200", "rec_done", "done"))

	_, ok := h.sessions.Peek("U1")
	assert.False(t, ok)
	require.NotEmpty(t, mock.updated)
}

func slashEvent(command, text, userID, channelID string) socketmode.Event {
	return socketmode.Event{
		Type: socketmode.EventTypeSlashCommand,
		Data: slack.SlashCommand{Command: command, Text: text, UserID: userID, ChannelID: channelID},
	}
}

func TestCommandRecommendRestartsFlow(t *testing.T) {
	h, mock := newTestHandler(t)

	// Leave a half-finished session behind.
	h.handleCallbackEvent(messageEvent(&slackevents.MessageEvent{
		User: "U1", Channel: "D1", ChannelType: "im", Text: "recommend",
	}))
	h.handleInteraction(context.Background(),
		interactionEvent("U1", "D1", "100.200", "rec_path_technology", "technology"))

	h.handleSlashCommand(context.Background(), slashEvent("/recommend", "", "U1", "C1"))

	conv, ok := h.sessions.Peek("U1")
	require.True(t, ok)
	assert.Equal(t, conversation.StagePreferenceChoice, conv.Stage)
	assert.NotEmpty(t, mock.posted)
}

func TestCommandProjectFindsKnownProject(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleSlashCommand(context.Background(), slashEvent("/project", "juice-shop", "U1", "C1"))

	require.Len(t, mock.posted, 1)
	assert.Equal(t, "C1", mock.posted[0].ChannelID)
}

func TestCommandProjectUnknownGetsPoliteMiss(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleSlashCommand(context.Background(), slashEvent("/project", "definitely-not-real", "U1", "C1"))

	require.Len(t, mock.posted, 1)
}

func TestCommandPollCreateAndVote(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleSlashCommand(context.Background(),
		slashEvent("/poll", "Pizza night? | Yes | No", "U1", "C1"))
	require.Len(t, mock.posted, 1)

	// The handler records where the poll message landed; a vote then
	// updates that message in place.
	p, options, err := h.polls.Create("C1", "U1", "Demo pick? | Juice Shop | ZAP")
	require.NoError(t, err)
	require.NoError(t, h.polls.Posted(p.ID, "C1", "555.666"))

	h.handleInteraction(context.Background(),
		interactionEvent("U2", "C1", "555.666", poll.ActionVotePrefix+options[0].ID, p.ID))

	require.Len(t, mock.updated, 1)
	assert.Equal(t, "555.666", mock.updated[0].Timestamp)
}

func TestCommandPollRejectsMalformed(t *testing.T) {
	h, mock := newTestHandler(t)

	h.handleSlashCommand(context.Background(),
		slashEvent("/poll", "only a question", "U1", "C1"))

	require.Len(t, mock.posted, 1, "error message posted back")
}

func TestRateLimitDropsExcessMessages(t *testing.T) {
	h, mock := newTestHandler(t)
	h.middleware = NewMiddleware(zerolog.Nop(), 1, time.Minute)

	for i := 0; i < 3; i++ {
		h.handleCallbackEvent(messageEvent(&slackevents.MessageEvent{
			User: "U1", Channel: "D1", ChannelType: "im", Text: "recommend",
		}))
	}

	assert.Len(t, mock.posted, 1)
}
