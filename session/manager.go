package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/harvest/models"
)

// Manager is the in-memory session registry.
type Manager struct {
	sessions sync.Map
	ttl      time.Duration
	done     chan struct{}
}

// NewManager creates a Manager that evicts sessions idle for longer than
// ttl. A ttl of zero disables eviction.
func NewManager(ttl time.Duration) *Manager {
	m := &Manager{ttl: ttl, done: make(chan struct{})}
	if ttl > 0 {
		go m.cleanupLoop()
	}
	return m
}

// Create registers a new session.
func (m *Manager) Create(credentials map[string]string, webhookURL string) *Session {
	s := New(credentials, webhookURL)
	m.sessions.Store(s.ID, s)
	slog.Info("session created", "session_id", s.ID)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeSessionNotFound, "session not found: "+id, nil)
	}
	return v.(*Session), nil
}

// Delete drops the session with id. Unknown ids are ignored.
func (m *Manager) Delete(id string) {
	m.sessions.Delete(id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	n := 0
	m.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the cleanup loop.
func (m *Manager) Close() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

func (m *Manager) cleanupLoop() {
	interval := min(m.ttl/2, 5*time.Minute)
	ticker := time.NewTicker(max(interval, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle(time.Now())
		}
	}
}

// evictIdle drops sessions untouched since now-ttl. Running sessions are
// kept.
func (m *Manager) evictIdle(now time.Time) {
	cutoff := now.Add(-m.ttl)
	m.sessions.Range(func(key, value any) bool {
		s := value.(*Session)
		if s.State() != StateScraping && s.lastTouched().Before(cutoff) {
			m.sessions.Delete(key)
			slog.Debug("session expired", "session_id", key)
		}
		return true
	})
}
