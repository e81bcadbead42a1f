package session

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewTracker(WithClock(clock.Now)), clock
}

func TestBeginPeekEnd(t *testing.T) {
	tr, _ := newTracker()
	if _, ok := tr.Peek(1); ok {
		t.Fatalf("no session expected")
	}

	tr.Begin(1, ActionAmount, 42)
	s, ok := tr.Peek(1)
	if !ok || s.Action != ActionAmount || s.TransactionID != 42 {
		t.Fatalf("unexpected session %+v, %v", s, ok)
	}

	tr.End(1)
	if _, ok := tr.Peek(1); ok {
		t.Fatalf("session should be gone after End")
	}
	tr.End(1)
}

func TestBeginReplaces(t *testing.T) {
	tr, _ := newTracker()
	tr.Begin(1, ActionAmount, 1)
	tr.Begin(1, ActionDescription, 2)
	s, _ := tr.Peek(1)
	if s.Action != ActionDescription || s.TransactionID != 2 {
		t.Fatalf("new session should replace old: %+v", s)
	}
	if tr.Len() != 1 {
		t.Fatalf("one session per user, got %d", tr.Len())
	}
}

func TestExpiry(t *testing.T) {
	tr, clock := newTracker()
	tr.Begin(1, ActionAmount, 1)

	clock.Advance(DefaultTimeout)
	if _, ok := tr.Peek(1); !ok {
		t.Fatalf("session exactly at the timeout is still valid")
	}

	clock.Advance(time.Second)
	if _, ok := tr.Peek(1); ok {
		t.Fatalf("session older than the timeout must not be returned")
	}
}

func TestPeekEvictsEveryone(t *testing.T) {
	tr, clock := newTracker()
	tr.Begin(1, ActionAmount, 1)
	tr.Begin(2, ActionDescription, 2)
	clock.Advance(4 * time.Minute)
	tr.Begin(3, ActionAmount, 3)
	clock.Advance(2 * time.Minute)

	// A peek for user 3 drops the stale sessions of users 1 and 2.
	if _, ok := tr.Peek(3); !ok {
		t.Fatalf("user 3 session should still be live")
	}
	if tr.Len() != 1 {
		t.Fatalf("expired sessions should be evicted on peek, %d left", tr.Len())
	}
}

func TestExpiryIsPerUser(t *testing.T) {
	tr, clock := newTracker()
	tr.Begin(1, ActionAmount, 1)
	clock.Advance(6 * time.Minute)
	tr.Begin(2, ActionAmount, 2)

	if _, ok := tr.Peek(1); ok {
		t.Fatalf("user 1 session should have expired")
	}
	if _, ok := tr.Peek(2); !ok {
		t.Fatalf("user 2 session must be unaffected by user 1 expiry")
	}
}

func TestWithTimeout(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tr := NewTracker(WithClock(clock.Now), WithTimeout(10*time.Second), WithTimeout(0))
	if tr.Timeout() != 10*time.Second {
		t.Fatalf("timeout = %v", tr.Timeout())
	}
	tr.Begin(1, ActionAmount, 1)
	clock.Advance(11 * time.Second)
	if n := tr.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired removed %d, want 1", n)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr, _ := newTracker()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			tr.Begin(id, ActionAmount, id)
			tr.Peek(id)
			tr.End(id)
		}(i)
	}
	wg.Wait()
	if tr.Len() != 0 {
		t.Fatalf("expected all sessions ended, %d left", tr.Len())
	}
}
