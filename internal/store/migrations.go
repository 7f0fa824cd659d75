package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	return s.migrateV1()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS polls (
		id         TEXT PRIMARY KEY,
		question   TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		message_ts TEXT,
		created_by TEXT NOT NULL,
		closed_at  INTEGER,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_polls_channel ON polls(channel_id);
	CREATE INDEX IF NOT EXISTS idx_polls_created ON polls(created_at);

	CREATE TABLE IF NOT EXISTS poll_options (
		id       TEXT PRIMARY KEY,
		poll_id  TEXT NOT NULL REFERENCES polls(id),
		position INTEGER NOT NULL,
		label    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_poll_options_poll ON poll_options(poll_id, position);

	CREATE TABLE IF NOT EXISTS poll_votes (
		poll_id   TEXT NOT NULL REFERENCES polls(id),
		user_id   TEXT NOT NULL,
		option_id TEXT NOT NULL REFERENCES poll_options(id),
		voted_at  INTEGER NOT NULL,
		PRIMARY KEY (poll_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_poll_votes_option ON poll_votes(option_id);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}

	return nil
}
