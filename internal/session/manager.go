package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"codinground/internal/metrics"
)

// DoneGrace is how long a finished session stays readable before it is reaped.
const DoneGrace = 5 * time.Minute

// Manager owns one Controller per session id.
type Manager struct {
	deps Deps

	mu          sync.RWMutex
	controllers map[string]*Controller
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:        deps.withDefaults(),
		controllers: make(map[string]*Controller),
	}
}

// Get returns the controller of a session that has been loaded.
func (m *Manager) Get(sessionID string) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.controllers[sessionID]
	return c, ok
}

// GetOrCreate returns the session's controller, creating it when missing.
func (m *Manager) GetOrCreate(sessionID string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.controllers[sessionID]; ok {
		return c
	}
	c := NewController(sessionID, m.deps)
	m.controllers[sessionID] = c
	metrics.ActiveSessions.Set(float64(len(m.controllers)))
	return c
}

// Remove tears a session down. It reports whether the session existed.
func (m *Manager) Remove(sessionID string) bool {
	m.mu.Lock()
	c, ok := m.controllers[sessionID]
	delete(m.controllers, sessionID)
	metrics.ActiveSessions.Set(float64(len(m.controllers)))
	m.mu.Unlock()

	if ok {
		c.Close()
	}
	return ok
}

// Reap removes sessions idle for longer than idleTTL, and finished sessions
// idle for longer than DoneGrace.
// It returns the removed ids.
func (m *Manager) Reap(idleTTL time.Duration) []string {
	now := m.deps.Now()

	m.mu.RLock()
	var stale []string
	for id, c := range m.controllers {
		idle := now.Sub(c.LastActivity())
		if idle > idleTTL || (c.Phase() == PhaseDone && idle > DoneGrace) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.Remove(id)
	}
	if len(stale) > 0 {
		m.deps.Logger.Info("reaped sessions", zap.Int("count", len(stale)))
	}
	return stale
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.controllers)
}

// Close tears down every session.
func (m *Manager) Close() {
	m.mu.Lock()
	controllers := m.controllers
	m.controllers = make(map[string]*Controller)
	metrics.ActiveSessions.Set(0)
	m.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
}
