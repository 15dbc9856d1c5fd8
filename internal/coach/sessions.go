package coach

import (
	"sync"
	"time"
)

// sessionIdleTTL bounds how long an untouched session, pending drafts
// included, stays in memory.
const sessionIdleTTL = 6 * time.Hour

type session struct {
	mu       sync.Mutex
	state    State
	hydrated bool
	lastSeen time.Time
}

// Sessions keeps one state per user. Each session has its own lock so messages
// from one user are handled in order while different users run in parallel.
type Sessions struct {
	mu        sync.Mutex
	byUser    map[string]*session
	lastSweep time.Time
	now       func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{byUser: make(map[string]*session), now: time.Now}
}

func (s *Sessions) get(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > time.Minute {
		s.sweep(now)
		s.lastSweep = now
	}

	sess, ok := s.byUser[userID]
	if !ok {
		sess = &session{state: State{UserID: userID}}
		s.byUser[userID] = sess
	}
	sess.lastSeen = now
	return sess
}

// sweep drops sessions idle for longer than sessionIdleTTL. A session that is
// busy right now is left alone.
func (s *Sessions) sweep(now time.Time) {
	for userID, sess := range s.byUser {
		if now.Sub(sess.lastSeen) <= sessionIdleTTL {
			continue
		}
		if !sess.mu.TryLock() {
			continue
		}
		delete(s.byUser, userID)
		sess.mu.Unlock()
	}
}

func (s *Sessions) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}

// Snapshot returns a copy of the user's state and whether a session exists.
func (s *Sessions) Snapshot(userID string) (State, bool) {
	s.mu.Lock()
	sess, ok := s.byUser[userID]
	s.mu.Unlock()
	if !ok {
		return State{}, false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.clone(), true
}

// MarkStale makes the next call for the user rehydrate from storage. Drafts
// are kept.
func (s *Sessions) MarkStale(userID string) {
	s.mu.Lock()
	sess, ok := s.byUser[userID]
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	sess.hydrated = false
	sess.mu.Unlock()
}
