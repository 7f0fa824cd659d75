package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Poll represents a poll in the database.
type Poll struct {
	ID        string
	Question  string
	ChannelID string
	MessageTS string
	CreatedBy string
	ClosedAt  int64 // unix ms, 0 = open
	CreatedAt int64 // unix ms
}

// PollOption is one selectable answer of a poll.
type PollOption struct {
	ID       string
	PollID   string
	Position int
	Label    string
	Votes    int
}

// SavePoll inserts a poll together with its options in one transaction.
func (s *Store) SavePoll(p *Poll, options []PollOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UnixMilli()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO polls (id, question, channel_id, message_ts, created_by, closed_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Question, p.ChannelID,
		sql.NullString{String: p.MessageTS, Valid: p.MessageTS != ""},
		p.CreatedBy,
		sql.NullInt64{Int64: p.ClosedAt, Valid: p.ClosedAt != 0},
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save poll: %w", err)
	}

	for _, opt := range options {
		if _, err := tx.Exec(`
		INSERT INTO poll_options (id, poll_id, position, label)
		VALUES (?, ?, ?, ?)`,
			opt.ID, p.ID, opt.Position, opt.Label,
		); err != nil {
			return fmt.Errorf("failed to save poll option: %w", err)
		}
	}

	return tx.Commit()
}

// GetPoll retrieves a poll by ID. Returns nil when not found.
func (s *Store) GetPoll(id string) (*Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := &Poll{}
	var messageTS sql.NullString
	var closedAt sql.NullInt64

	err := s.db.QueryRow(`
	SELECT id, question, channel_id, message_ts, created_by, closed_at, created_at
	FROM polls WHERE id = ?`, id).Scan(
		&p.ID, &p.Question, &p.ChannelID, &messageTS, &p.CreatedBy, &closedAt, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	if messageTS.Valid {
		p.MessageTS = messageTS.String
	}
	if closedAt.Valid {
		p.ClosedAt = closedAt.Int64
	}
	return p, nil
}

// SetPollMessage records the Slack message the poll was posted as, so
// later votes can update it in place.
func (s *Store) SetPollMessage(pollID, channelID, messageTS string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE polls SET channel_id = ?, message_ts = ? WHERE id = ?`,
		channelID, messageTS, pollID)
	if err != nil {
		return fmt.Errorf("failed to set poll message: %w", err)
	}
	return nil
}

// GetPollOptions returns a poll's options in position order with their
// current vote counts.
func (s *Store) GetPollOptions(pollID string) ([]PollOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
	SELECT o.id, o.poll_id, o.position, o.label,
	       (SELECT COUNT(*) FROM poll_votes v WHERE v.option_id = o.id) AS votes
	FROM poll_options o
	WHERE o.poll_id = ?
	ORDER BY o.position`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll options: %w", err)
	}
	defer rows.Close()

	var options []PollOption
	for rows.Next() {
		var opt PollOption
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Position, &opt.Label, &opt.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan poll option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

// Vote records a user's vote. A user gets one vote per poll; voting
// again moves the vote to the new option.
func (s *Store) Vote(pollID, userID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Only accept options that belong to this poll; anything else is a
	// forged interaction payload.
	var owner string
	err := s.db.QueryRow(`SELECT poll_id FROM poll_options WHERE id = ?`, optionID).Scan(&owner)
	if err == sql.ErrNoRows {
		return fmt.Errorf("option %s not found", optionID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up option: %w", err)
	}
	if owner != pollID {
		return fmt.Errorf("option %s does not belong to poll %s", optionID, pollID)
	}

	_, err = s.db.Exec(`
	INSERT INTO poll_votes (poll_id, user_id, option_id, voted_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(poll_id, user_id) DO UPDATE SET option_id = excluded.option_id, voted_at = excluded.voted_at`,
		pollID, userID, optionID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}
	return nil
}

// ClosePoll marks a poll as closed. Closing an already-closed poll is a
// no-op.
func (s *Store) ClosePoll(pollID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE polls SET closed_at = ? WHERE id = ? AND closed_at IS NULL`,
		time.Now().UnixMilli(), pollID)
	if err != nil {
		return fmt.Errorf("failed to close poll: %w", err)
	}
	return nil
}
