// Package live hosts chat sessions over WebSocket. Each connection owns one
// session; its conversation disappears when the connection closes.
package live

import (
	"log/slog"
	"sync"

	"github.com/ashureev/consolebot/internal/chat"
)

// SessionManager tracks the sessions of open connections.
type SessionManager struct {
	mu     sync.RWMutex
	active map[string]*chat.Session
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		active: make(map[string]*chat.Session),
	}
}

// Get returns the session registered under id.
func (m *SessionManager) Get(id string) *chat.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[id]
}

// Register adds a session under id.
func (m *SessionManager) Register(id string, s *chat.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[id] = s
	slog.Info("Live session registered", "session_id", id, "active", len(m.active))
}

// Unregister removes the session under id if it is still s.
func (m *SessionManager) Unregister(id string, s *chat.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.active[id]; ok && current == s {
		delete(m.active, id)
		slog.Info("Live session unregistered", "session_id", id, "active", len(m.active))
	}
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}
