package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or evicted session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Manager keeps independent sessions keyed by ID.
type Manager struct {
	assistant *Assistant

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager(a *Assistant) *Manager {
	return &Manager{assistant: a, sessions: make(map[string]*Session)}
}

// Create starts a session under a fresh random ID.
func (m *Manager) Create() *Session {
	s := m.assistant.NewSession(uuid.NewString())

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.assistant.logger.Debug().Str("session", s.ID()).Msg("session created")
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session. Deleting an unknown ID is not an error.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Evict drops sessions idle for longer than ttl and returns how many went.
func (m *Manager) Evict(ttl time.Duration) int {
	cutoff := m.assistant.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.assistant.logger.Debug().Int("evicted", n).Int("remaining", len(m.sessions)).Msg("idle sessions evicted")
	}
	return n
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, ttl, interval time.Duration) error {
	if ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	if interval <= 0 {
		interval = ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Evict(ttl)
		}
	}
}
