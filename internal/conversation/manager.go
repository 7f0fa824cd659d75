package conversation

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/owasp-blt/lettuce/lru"
)

// Manager owns the live conversations. Sessions are keyed by user ID
// and backed by an LRU with an idle TTL: capacity bounds memory when
// many users talk at once, and idle sessions quietly expire so a user
// coming back hours later starts fresh.
type Manager struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *Conversation]
	logger   zerolog.Logger
}

// NewManager builds a manager holding at most capacity sessions, each
// expiring after ttl of inactivity. A zero ttl disables expiry.
func NewManager(capacity int, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: lru.NewWithTTL[string, *Conversation](capacity, ttl),
		logger:   logger.With().Str("component", "sessions").Logger(),
	}
}

// GetOrCreate returns the user's conversation, creating one at the
// initial stage if none exists. Repeated calls for the same user return
// the same conversation until it ends or expires.
func (m *Manager) GetOrCreate(userID string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conv, ok := m.sessions.Get(userID); ok {
		return conv
	}
	conv := newConversation(userID)
	if evictedKey, _, evicted := m.sessions.Put(userID, conv); evicted {
		m.logger.Debug().Str("user", evictedKey).Msg("evicted least recently used session")
	}
	return conv
}

// Peek returns the user's conversation without refreshing its TTL.
func (m *Manager) Peek(userID string) (*Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Peek(userID)
}

// End removes the user's conversation. Ending a user with no session is
// a no-op.
func (m *Manager) End(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions.Delete(userID) {
		m.logger.Debug().Str("user", userID).Msg("session ended")
	}
}

// Len reports the number of live sessions, expired ones included until
// the next prune.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Len()
}

// Prune drops idle-expired sessions and returns how many were removed.
// Intended to run on a ticker from the main loop.
func (m *Manager) Prune() int {
	m.mu.Lock()
	pruned := m.sessions.PruneExpired()
	m.mu.Unlock()

	if len(pruned) > 0 {
		m.logger.Info().Int("count", len(pruned)).Msg("pruned expired sessions")
	}
	return len(pruned)
}
