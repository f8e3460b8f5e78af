package chat

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns every live session, keyed by session ID
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with a fresh random ID
func (m *Manager) Create() *Session {
	s := NewSession(uuid.New().String())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
	return s
}

// Get returns the session with the given ID, or nil if there is none
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// GetOrCreate returns the session with the given ID, creating a new one (with a new ID) if it does not exist. The
// boolean result reports whether a session was created
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s := m.Get(id); s != nil {
			return s, false
		}
	}
	return m.Create(), true
}

// Delete destroys a session. Deleting an unknown ID is a no-op
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep destroys idle sessions that have not changed for longer than maxIdle, and returns how many were removed.
// Sessions waiting for the agent are never swept
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.State() == StateIdle && s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("Expired %d idle sessions, %d remaining", removed, len(m.sessions))
	}
	return removed
}
