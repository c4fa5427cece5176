package session

import (
	"sync"

	"github.com/google/uuid"
)

// Manager tracks open sessions by id. Each open lesson owns an independent
// Controller; no state is shared between them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Controller)}
}

// Add registers a controller and returns its new session id.
func (m *Manager) Add(ctrl *Controller) string {
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = ctrl
	return id
}

// Get returns the controller for a session id, or nil.
func (m *Manager) Get(id string) *Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Remove tears a session down and forgets it. Returns false if the id is
// unknown.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	ctrl, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	ctrl.Close()
	return true
}

// CloseAll tears down every open session, used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, ctrl := range m.sessions {
		ctrl.Close()
		delete(m.sessions, id)
	}
}
