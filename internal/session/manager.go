package session

import (
	"context"
	"sync"

	"lichtwerk/internal/backend"
)

// Manager keeps one open Session per job.
type Manager struct {
	mu       sync.Mutex
	backend  backend.Backend
	opts     Options
	sessions map[string]*Session
}

// NewManager builds a manager opening sessions against b.
func NewManager(b backend.Backend, opts Options) *Manager {
	return &Manager{backend: b, opts: opts, sessions: make(map[string]*Session)}
}

// Get returns the open session for jobID, opening it on first use.
func (m *Manager) Get(ctx context.Context, jobID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[jobID]; ok {
		return s, nil
	}
	s, err := Open(ctx, m.backend, jobID, m.opts)
	if err != nil {
		return nil, err
	}
	m.sessions[jobID] = s
	return s, nil
}

// Forget drops the cached session so the next Get reloads the job.
func (m *Manager) Forget(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, jobID)
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
