package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/unblock/game/engine"
	"github.com/wricardo/unblock/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	ErrNoFreeSessionID      = errors.New("no free session ID")
)

// maxIDAttempts bounds random draws for an unused session ID
const maxIDAttempts = 64

// Manager handles game session lifecycle. Sessions live in memory only.
type Manager struct {
	sessions map[string]*service.Session
	opts     engine.Options
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return NewManagerWithOptions(engine.Options{})
}

// NewManagerWithOptions creates a session manager whose engines use opts
func NewManagerWithOptions(opts engine.Options) *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		opts:     opts,
	}
}

// Create creates a new session playing the given levels. An empty id gets a
// generated 4-character one.
func (m *Manager) Create(id, packName string, levels []*engine.Level) (*service.Session, error) {
	if strings.TrimSpace(id) != id {
		return nil, ErrInvalidSessionID
	}

	eng, err := engine.NewEngine(levels, m.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		if id, err = m.generateSessionID(); err != nil {
			return nil, err
		}
	} else if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		Engine:         eng,
		PackName:       packName,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[strings.ToLower(id)] = session
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id, packName string, levels []*engine.Level) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, packName, levels)
	}
	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	if _, exists := m.sessions[lowerID]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, lowerID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID returns an unused random 4-character hex ID. Callers hold m.mu.
func (m *Manager) generateSessionID() (string, error) {
	bytes := make([]byte, 2)
	for i := 0; i < maxIDAttempts; i++ {
		if _, err := rand.Read(bytes); err != nil {
			return "", fmt.Errorf("failed to generate session ID: %w", err)
		}
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts (%d sessions)", ErrNoFreeSessionID, maxIDAttempts, len(m.sessions))
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
