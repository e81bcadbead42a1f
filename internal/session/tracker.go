// Package session tracks the multi-step edit a user is in the middle of.
//
// Sessions live only in process memory and expire a fixed time after they
// were started. Expiry is lazy: every Peek first drops all expired sessions.
package session

import (
	"sync"
	"time"
)

// DefaultTimeout is how long an edit session stays valid.
const DefaultTimeout = 300 * time.Second

// Action names the field being edited.
type Action string

const (
	ActionAmount      Action = "amount"
	ActionDescription Action = "description"
	ActionType        Action = "type"
	ActionCategory    Action = "category"
)

// Session is one user's pending edit.
type Session struct {
	UserID        int64
	Action        Action
	TransactionID int64
	StartedAt     time.Time
}

// Tracker holds at most one session per user.
type Tracker struct {
	mu       sync.Mutex
	timeout  time.Duration
	now      func() time.Time
	sessions map[int64]Session
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTimeout sets the session lifetime. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		timeout:  DefaultTimeout,
		now:      time.Now,
		sessions: make(map[int64]Session),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Begin starts a session for userID, replacing any existing one.
func (t *Tracker) Begin(userID int64, action Action, transactionID int64) Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Session{
		UserID:        userID,
		Action:        action,
		TransactionID: transactionID,
		StartedAt:     t.now(),
	}
	t.sessions[userID] = s
	return s
}

// Peek evicts every expired session and returns userID's session, if any.
func (t *Tracker) Peek(userID int64) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictExpired()
	s, ok := t.sessions[userID]
	return s, ok
}

// End removes userID's session. Ending a missing session is a no-op.
func (t *Tracker) End(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, userID)
}

// CleanExpired drops expired sessions and reports how many were removed.
func (t *Tracker) CleanExpired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evictExpired()
}

// Len returns the number of live entries, expired or not.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Timeout returns the configured session lifetime.
func (t *Tracker) Timeout() time.Duration {
	return t.timeout
}

func (t *Tracker) evictExpired() int {
	now := t.now()
	removed := 0
	for id, s := range t.sessions {
		if now.Sub(s.StartedAt) > t.timeout {
			delete(t.sessions, id)
			removed++
		}
	}
	return removed
}
