package session

import (
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog/log"

	"github.com/hollis/cradle/internal/metrics"
)

// Session is one conversation's state. The store hands out the live object;
// the caller mutates History and TurnCount between GetOrCreate and Save.
type Session struct {
	ID         string
	History    []anthropic.MessageParam
	TurnCount  int
	lastActive time.Time
}

// LastActive returns the time of the session's last save or creation.
func (s *Session) LastActive() time.Time {
	return s.lastActive
}

// Store maps session ids to live sessions and expires idle ones.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	metrics  *metrics.Metrics

	// now is overridable for tests
	now func() time.Time
}

// NewStore creates a session store with the given idle TTL. The metrics
// argument may be nil.
func NewStore(ttl time.Duration, m *metrics.Metrics) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		metrics:  m,
		now:      time.Now,
	}
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return now.Sub(s.lastActive) > st.ttl
}

// GetOrCreate returns the live session for id, or a fresh empty one if none
// exists or the previous one sat idle past the TTL. Replacement is a silent
// reset: history and turn count start over under the same id.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	s, ok := st.sessions[id]
	if ok && !st.expired(s, now) {
		return s
	}
	if ok {
		log.Info().Str("session_id", id).Msg("Session expired, starting fresh")
	}

	s = &Session{ID: id, lastActive: now}
	st.sessions[id] = s
	st.metrics.RecordSessionCreated()
	return s
}

// Save refreshes the session's idle timer and stores it back under its id.
// Last writer wins if two turns for the same id ever overlap.
func (st *Store) Save(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s.lastActive = st.now()
	st.sessions[s.ID] = s
}

// ActiveCount returns the number of non-expired sessions without removing
// expired ones.
func (st *Store) ActiveCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	count := 0
	for _, s := range st.sessions {
		if !st.expired(s, now) {
			count++
		}
	}
	st.metrics.SetActiveSessions(count)
	return count
}

// EvictExpired removes every session whose idle time exceeds the TTL and
// returns how many were removed.
func (st *Store) EvictExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	evicted := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			evicted++
		}
	}
	st.metrics.RecordSessionsEvicted(evicted)
	return evicted
}
