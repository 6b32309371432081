package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Expired entries are dropped lazily on
// lookup and swept on every save.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Save stores s under token, replacing any previous session.
func (m *MemoryStore) Save(_ context.Context, token string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for t, existing := range m.sessions {
		if !now.Before(existing.ExpiresAt) {
			delete(m.sessions, t)
		}
	}
	m.sessions[token] = s
	return nil
}

// Lookup returns the session for token, or ErrNotFound if it is missing or
// expired.
func (m *MemoryStore) Lookup(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, token)
		return nil, ErrNotFound
	}
	return &s, nil
}

// Delete removes token. Unknown tokens are ignored.
func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Len reports how many sessions are held, including expired ones not yet
// swept.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
