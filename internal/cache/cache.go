// Package cache holds in-process caches and their periodic cleanup.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is the generic cache contract used by services.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is anything holding entries that can expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps registered cleaners.
type Manager struct {
	cleaners    map[string]Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	startOnce   sync.Once
	stopOnce    sync.Once
	started     bool
}

func NewManager() *Manager {
	return &Manager{
		cleaners:    make(map[string]Cleaner),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a named cleaner. Call before StartCleanup.
func (m *Manager) Register(name string, c Cleaner) {
	m.cleaners[name] = c
}

// Sweep runs every cleaner once and returns the total removed.
func (m *Manager) Sweep() int {
	total := 0
	for name, c := range m.cleaners {
		n := c.CleanExpired()
		if n > 0 {
			slog.Debug("Expired entries removed", "cache", name, "removed", n)
		}
		total += n
	}
	return total
}

// StartCleanup starts the sweep loop. Later calls are no-ops.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.startOnce.Do(func() {
		m.started = true
		go m.cleanup(interval)
	})
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup loop started by StartCleanup. It is safe to call
// more than once and without a prior StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.startOnce.Do(func() {})
		close(m.stopCleanup)
		if m.started {
			<-m.cleanupDone
		}
	})
}
