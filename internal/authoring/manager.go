package authoring

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"herald/internal/access"
)

// Manager tracks open editing sessions. Idle sessions expire lazily.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	now      func() time.Time
}

func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = time.Hour
	}
	return &Manager{sessions: make(map[string]*Session), timeout: timeout, now: time.Now}
}

func (m *Manager) Start(guildID, ownerID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()

	session := &Session{
		ID:         uuid.NewString(),
		GuildID:    guildID,
		OwnerID:    ownerID,
		lastActive: m.now(),
		now:        m.now,
	}
	m.sessions[session.ID] = session
	return session
}

// Get returns the session if it is still live and actorID owns it.
func (m *Manager) Get(id, actorID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrExpired
	}
	now := m.now()
	session.mu.Lock()
	idle := now.Sub(session.lastActive)
	session.mu.Unlock()
	if idle > m.timeout {
		delete(m.sessions, id)
		return nil, ErrExpired
	}
	if err := access.RequireOwner(session.OwnerID, actorID); err != nil {
		return nil, err
	}
	session.mu.Lock()
	session.lastActive = now
	session.mu.Unlock()
	return session, nil
}

func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) sweepLocked() {
	now := m.now()
	for id, session := range m.sessions {
		session.mu.Lock()
		idle := now.Sub(session.lastActive)
		session.mu.Unlock()
		if idle > m.timeout {
			delete(m.sessions, id)
		}
	}
}
