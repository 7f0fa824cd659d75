package slackbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/owasp-blt/lettuce/internal/catalog"
	"github.com/owasp-blt/lettuce/internal/conversation"
	"github.com/owasp-blt/lettuce/internal/dialog"
	"github.com/owasp-blt/lettuce/internal/metrics"
	"github.com/owasp-blt/lettuce/internal/poll"
)

// Handler processes Slack events. Button interactions drive the
// conversation machine; free text is matched against trigger words in
// DMs and contribution keywords in channels.
type Handler struct {
	api        BotAPI
	socket     *socketmode.Client
	logger     zerolog.Logger
	middleware *Middleware

	catalog  *catalog.Catalog
	machine  *conversation.Machine
	sessions *conversation.Manager
	polls    *poll.Service
	metrics  *metrics.Metrics

	botUserID         string
	contributeChannel string
}

// NewHandler creates a new event handler.
func NewHandler(
	logger zerolog.Logger,
	middleware *Middleware,
	cat *catalog.Catalog,
	machine *conversation.Machine,
	sessions *conversation.Manager,
	polls *poll.Service,
	m *metrics.Metrics,
	contributeChannel string,
) *Handler {
	return &Handler{
		logger:            logger.With().Str("component", "slack.handler").Logger(),
		middleware:        middleware,
		catalog:           cat,
		machine:           machine,
		sessions:          sessions,
		polls:             polls,
		metrics:           m,
		contributeChannel: contributeChannel,
	}
}

// SetSocket sets the Socket Mode client for acknowledging events.
func (h *Handler) SetSocket(s *socketmode.Client) {
	h.socket = s
}

// SetBotUserID sets the bot's own user ID for self-message filtering.
func (h *Handler) SetBotUserID(id string) {
	h.botUserID = id
}

// HandleEvent routes Socket Mode events to the appropriate handler.
func (h *Handler) HandleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		h.handleEventsAPI(ctx, evt)
	case socketmode.EventTypeInteractive:
		h.handleInteraction(ctx, evt)
	case socketmode.EventTypeSlashCommand:
		h.handleSlashCommand(ctx, evt)
	default:
		h.logger.Debug().Str("type", string(evt.Type)).Msg("unhandled event type")
	}
}

func (h *Handler) handleEventsAPI(_ context.Context, evt socketmode.Event) {
	// Acknowledge the event first — Slack requires this within 3 seconds
	if h.socket != nil && evt.Request != nil {
		h.socket.Ack(*evt.Request)
	}

	eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		h.logger.Warn().Str("type", string(evt.Type)).Msg("failed to cast events_api data")
		return
	}

	switch eventsAPIEvent.Type {
	case slackevents.CallbackEvent:
		h.handleCallbackEvent(eventsAPIEvent.InnerEvent)
	}
}

func (h *Handler) handleCallbackEvent(innerEvent slackevents.EventsAPIInnerEvent) {
	switch ev := innerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		// Skip bot messages and message_changed/deleted subtypes
		if ev.User == "" || ev.SubType != "" || ev.User == h.botUserID {
			return
		}
		if !h.middleware.CheckRateLimit(ev.User) {
			return
		}
		h.metrics.RecordEvent("message")

		if ev.ChannelType == "im" {
			h.handleDirectMessage(ev.Channel, ev.User, ev.Text)
			return
		}
		h.handleChannelMessage(ev.Channel, ev.ThreadTimeStamp, ev.TimeStamp, ev.Text)

	case *slackevents.AppMentionEvent:
		if ev.User == "" || ev.User == h.botUserID {
			return
		}
		if !h.middleware.CheckRateLimit(ev.User) {
			return
		}
		h.metrics.RecordEvent("app_mention")
		h.handleDirectMessage(ev.Channel, ev.User, ev.Text)

	case *slackevents.TeamJoinEvent:
		h.metrics.RecordEvent("team_join")
		h.welcomeNewMember(ev)

	default:
		h.logger.Debug().
			Str("inner_type", innerEvent.Type).
			Msg("unhandled callback event type")
	}
}

// handleDirectMessage feeds free text into the conversation machine.
func (h *Handler) handleDirectMessage(channelID, userID, text string) {
	conv := h.sessions.GetOrCreate(userID)
	conv.ChannelID = channelID

	res, ok := h.machine.Advance(conv, conversation.TriggerMessage{Text: text})
	if !ok {
		return
	}
	h.finishAdvance(userID, res)
	h.postReply(channelID, res.Reply)
}

// handleChannelMessage answers contribution keywords in public channels.
func (h *Handler) handleChannelMessage(channelID, threadTS, messageTS, text string) {
	lowered := strings.ToLower(text)
	if !strings.Contains(lowered, "contribute") && !strings.Contains(lowered, "contributing") {
		return
	}

	reply := "Please check the contributing guidelines!"
	if h.contributeChannel != "" {
		reply = fmt.Sprintf("Please check <#%s> for contributing guidelines!", h.contributeChannel)
	}

	ts := threadTS
	if ts == "" {
		ts = messageTS
	}
	if _, _, err := h.api.PostMessage(channelID,
		slack.MsgOptionText(reply, false),
		slack.MsgOptionTS(ts),
	); err != nil {
		h.logger.Warn().Err(err).Str("channel", channelID).Msg("failed to send contribution reply")
		h.metrics.RecordError("slack", "post_message")
	}
}

// welcomeNewMember opens a DM with the new member and sends the
// community welcome.
func (h *Handler) welcomeNewMember(ev *slackevents.TeamJoinEvent) {
	if ev.User == nil || ev.User.ID == "" {
		return
	}
	userID := ev.User.ID

	channel, _, _, err := h.api.OpenConversation(&slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("user", userID).Msg("failed to open welcome DM")
		h.metrics.RecordError("slack", "open_conversation")
		return
	}

	if _, _, err := h.api.PostMessage(channel.ID,
		slack.MsgOptionText("Welcome to the OWASP Slack Community!", false),
		slack.MsgOptionBlocks(WelcomeBlocks(userID)...),
	); err != nil {
		h.logger.Warn().Err(err).Str("user", userID).Msg("failed to send welcome message")
		h.metrics.RecordError("slack", "post_message")
		return
	}
	h.logger.Info().Str("user", userID).Msg("welcomed new member")
}

func (h *Handler) handleSlashCommand(_ context.Context, evt socketmode.Event) {
	if h.socket != nil && evt.Request != nil {
		h.socket.Ack(*evt.Request)
	}

	cmd, ok := evt.Data.(slack.SlashCommand)
	if !ok {
		return
	}
	if !h.middleware.CheckRateLimit(cmd.UserID) {
		return
	}
	h.metrics.RecordEvent("slash_command")

	h.logger.Info().
		Str("command", cmd.Command).
		Str("user", cmd.UserID).
		Str("channel", cmd.ChannelID).
		Msg("slash command received")

	switch cmd.Command {
	case "/recommend":
		h.commandRecommend(cmd)
	case "/project":
		h.commandProject(cmd)
	case "/welcome":
		h.commandWelcome(cmd)
	case "/poll":
		h.commandPoll(cmd)
	default:
		h.logger.Debug().Str("command", cmd.Command).Msg("unknown slash command")
	}
}

// commandRecommend always starts a fresh guided flow, dropping any
// half-finished session the user may have.
func (h *Handler) commandRecommend(cmd slack.SlashCommand) {
	h.sessions.End(cmd.UserID)
	conv := h.sessions.GetOrCreate(cmd.UserID)
	conv.ChannelID = cmd.ChannelID

	res, ok := h.machine.Advance(conv, conversation.TriggerMessage{Text: "recommend"})
	if !ok {
		return
	}
	h.finishAdvance(cmd.UserID, res)
	h.postReply(cmd.ChannelID, res.Reply)
}

func (h *Handler) commandProject(cmd slack.SlashCommand) {
	name := strings.ToLower(strings.TrimSpace(cmd.Text))
	if name == "" {
		h.postText(cmd.ChannelID, "Usage: `/project <name>`, for example `/project juice-shop`.")
		return
	}

	project, found := h.catalog.Get(name)
	if !found {
		project, found = h.catalog.Get("www-project-" + name)
	}
	if !found {
		if matches := h.catalog.SearchKeyword(name); len(matches) > 0 {
			project, found = matches[0], true
		}
	}
	if !found {
		h.postText(cmd.ChannelID, fmt.Sprintf(
			"The project %q is not recognized. Please try a different query.", name))
		return
	}

	if _, _, err := h.api.PostMessage(cmd.ChannelID,
		slack.MsgOptionBlocks(ProjectBlocks(project)...),
	); err != nil {
		h.logger.Warn().Err(err).Str("project", project.ID).Msg("failed to send project info")
		h.metrics.RecordError("slack", "post_message")
	}
}

func (h *Handler) commandWelcome(cmd slack.SlashCommand) {
	if _, _, err := h.api.PostMessage(cmd.ChannelID,
		slack.MsgOptionBlocks(WelcomeBlocks(cmd.UserID)...),
	); err != nil {
		h.logger.Warn().Err(err).Msg("failed to send welcome message")
		h.metrics.RecordError("slack", "post_message")
	}
}

func (h *Handler) commandPoll(cmd slack.SlashCommand) {
	if h.polls == nil {
		h.postText(cmd.ChannelID, "Polls are unavailable right now.")
		return
	}
	p, options, err := h.polls.Create(cmd.ChannelID, cmd.UserID, cmd.Text)
	if err != nil {
		h.postText(cmd.ChannelID, "Could not create poll: "+err.Error()+
			"\nUsage: `/poll Question | option | option`")
		return
	}

	_, ts, err := h.api.PostMessage(cmd.ChannelID,
		slack.MsgOptionBlocks(poll.MessageBlocks(p, options)...),
	)
	if err != nil {
		h.logger.Warn().Err(err).Str("poll", p.ID).Msg("failed to post poll")
		h.metrics.RecordError("slack", "post_message")
		return
	}
	if err := h.polls.Posted(p.ID, cmd.ChannelID, ts); err != nil {
		h.logger.Warn().Err(err).Str("poll", p.ID).Msg("failed to record poll message")
	}
}

func (h *Handler) handleInteraction(_ context.Context, evt socketmode.Event) {
	if h.socket != nil && evt.Request != nil {
		h.socket.Ack(*evt.Request)
	}

	callback, ok := evt.Data.(slack.InteractionCallback)
	if !ok {
		return
	}

	for _, action := range callback.ActionCallback.BlockActions {
		h.logger.Info().
			Str("action", action.ActionID).
			Str("user", callback.User.ID).
			Msg("interaction received")
		h.metrics.RecordEvent("interaction")

		if pollID, optionID, ok := poll.DecodeVote(action.ActionID, action.Value); ok {
			h.handleVote(callback, pollID, optionID)
			continue
		}

		decoded, ok := conversation.DecodeAction(action.ActionID, action.Value)
		if !ok {
			h.logger.Debug().Str("action", action.ActionID).Msg("unrecognized action id")
			continue
		}
		h.advanceConversation(callback, decoded)
	}
}

func (h *Handler) handleVote(callback slack.InteractionCallback, pollID, optionID string) {
	if h.polls == nil {
		return
	}
	p, options, err := h.polls.Vote(pollID, callback.User.ID, optionID)
	if err != nil {
		h.logger.Warn().Err(err).Str("poll", pollID).Msg("vote rejected")
		return
	}
	h.metrics.PollVotesTotal.Inc()

	if p.MessageTS == "" {
		return
	}
	if _, _, _, err := h.api.UpdateMessage(p.ChannelID, p.MessageTS,
		slack.MsgOptionBlocks(poll.MessageBlocks(p, options)...),
	); err != nil {
		h.logger.Warn().Err(err).Str("poll", pollID).Msg("failed to update poll message")
		h.metrics.RecordError("slack", "update_message")
	}
}

// advanceConversation applies a decoded button action and replaces the
// prompt message in place with the next step.
func (h *Handler) advanceConversation(callback slack.InteractionCallback, action conversation.Action) {
	conv := h.sessions.GetOrCreate(callback.User.ID)
	if callback.Channel.ID != "" {
		conv.ChannelID = callback.Channel.ID
	}

	res, ok := h.machine.Advance(conv, action)
	if !ok {
		// Stale or out-of-order click; leave the message as is.
		return
	}
	h.finishAdvance(callback.User.ID, res)

	if callback.Channel.ID != "" && callback.Message.Timestamp != "" {
		h.updateReply(callback.Channel.ID, callback.Message.Timestamp, res.Reply)
		return
	}
	h.postReply(conv.ChannelID, res.Reply)
}

// finishAdvance applies the session and metrics consequences of an
// accepted machine step.
func (h *Handler) finishAdvance(userID string, res conversation.Result) {
	if res.EndSession {
		h.sessions.End(userID)
	}
	if res.Completed {
		outcome := "results"
		if res.Reply != nil && res.Reply.Fallback {
			outcome = "fallback"
		}
		h.metrics.RecordRecommendation(res.Path, outcome)
	}
	h.metrics.SetActiveSessions(float64(h.sessions.Len()))
}

func (h *Handler) postReply(channelID string, r *dialog.Reply) {
	if r == nil || channelID == "" {
		return
	}
	if _, _, err := h.api.PostMessage(channelID,
		slack.MsgOptionText(r.Text, false),
		slack.MsgOptionBlocks(ReplyBlocks(r)...),
	); err != nil {
		h.logger.Warn().Err(err).Str("channel", channelID).Msg("failed to post reply")
		h.metrics.RecordError("slack", "post_message")
	}
}

func (h *Handler) updateReply(channelID, timestamp string, r *dialog.Reply) {
	if r == nil {
		return
	}
	if _, _, _, err := h.api.UpdateMessage(channelID, timestamp,
		slack.MsgOptionText(r.Text, false),
		slack.MsgOptionBlocks(ReplyBlocks(r)...),
	); err != nil {
		h.logger.Warn().Err(err).Str("channel", channelID).Msg("failed to update reply")
		h.metrics.RecordError("slack", "update_message")
	}
}

func (h *Handler) postText(channelID, text string) {
	if _, _, err := h.api.PostMessage(channelID, slack.MsgOptionText(text, false)); err != nil {
		h.logger.Warn().Err(err).Str("channel", channelID).Msg("failed to post message")
		h.metrics.RecordError("slack", "post_message")
	}
}
