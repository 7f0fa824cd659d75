// Package poll implements `/poll Question | option | option …` with
// persistent votes. One vote per user; voting again moves the vote.
package poll

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/owasp-blt/lettuce/internal/store"
)

const (
	// ActionVotePrefix prefixes vote buttons; the option ID follows the
	// prefix and the button value carries the poll ID.
	ActionVotePrefix = "poll_vote_"

	maxOptions = 10
)

var (
	ErrNoQuestion     = errors.New("poll needs a question")
	ErrTooFewOptions  = errors.New("poll needs at least two options")
	ErrTooManyOptions = fmt.Errorf("poll supports at most %d options", maxOptions)
)

// Service creates polls and records votes.
type Service struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewService builds a poll service on the database store.
func NewService(st *store.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger.With().Str("component", "poll").Logger(),
	}
}

// Parse splits `/poll` command text on "|" into a question and options.
func Parse(text string) (question string, options []string, err error) {
	parts := strings.Split(text, "|")
	question = strings.TrimSpace(parts[0])
	if question == "" {
		return "", nil, ErrNoQuestion
	}
	for _, p := range parts[1:] {
		if opt := strings.TrimSpace(p); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < 2 {
		return "", nil, ErrTooFewOptions
	}
	if len(options) > maxOptions {
		return "", nil, ErrTooManyOptions
	}
	return question, options, nil
}

// Create parses the command text and persists a new poll.
func (s *Service) Create(channelID, userID, text string) (*store.Poll, []store.PollOption, error) {
	question, labels, err := Parse(text)
	if err != nil {
		return nil, nil, err
	}

	p := &store.Poll{
		ID:        uuid.NewString(),
		Question:  question,
		ChannelID: channelID,
		CreatedBy: userID,
	}
	options := make([]store.PollOption, len(labels))
	for i, label := range labels {
		options[i] = store.PollOption{
			ID:       uuid.NewString(),
			PollID:   p.ID,
			Position: i,
			Label:    label,
		}
	}

	if err := s.store.SavePoll(p, options); err != nil {
		return nil, nil, fmt.Errorf("creating poll: %w", err)
	}

	s.logger.Info().
		Str("poll", p.ID).
		Str("channel", channelID).
		Int("options", len(options)).
		Msg("poll created")
	return p, options, nil
}

// Posted records where the poll message landed so votes can update it.
func (s *Service) Posted(pollID, channelID, messageTS string) error {
	return s.store.SetPollMessage(pollID, channelID, messageTS)
}

// Vote records or moves a user's vote and returns the refreshed poll.
// Votes on closed or unknown polls are rejected.
func (s *Service) Vote(pollID, userID, optionID string) (*store.Poll, []store.PollOption, error) {
	p, err := s.store.GetPoll(pollID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, fmt.Errorf("poll %s not found", pollID)
	}
	if p.ClosedAt != 0 {
		return nil, nil, fmt.Errorf("poll %s is closed", pollID)
	}

	if err := s.store.Vote(pollID, userID, optionID); err != nil {
		return nil, nil, err
	}

	options, err := s.store.GetPollOptions(pollID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debug().Str("poll", pollID).Str("user", userID).Msg("vote recorded")
	return p, options, nil
}

// Close closes a poll to further votes.
func (s *Service) Close(pollID string) error {
	return s.store.ClosePoll(pollID)
}

// DecodeVote extracts poll and option IDs from a vote button. Returns
// false for non-vote actions.
func DecodeVote(actionID, value string) (pollID, optionID string, ok bool) {
	if !strings.HasPrefix(actionID, ActionVotePrefix) {
		return "", "", false
	}
	optionID = strings.TrimPrefix(actionID, ActionVotePrefix)
	if optionID == "" || value == "" {
		return "", "", false
	}
	return value, optionID, true
}
