package auth

import (
	"context"
	"sync"
	"time"

	"clubroster/pkg/platform/sentinel"
)

// Session is one logged-in credential. Sessions are server-side state so a
// logout revokes the token immediately, even before it expires.
type Session struct {
	ID        string    `json:"id"`
	CallSign  string    `json:"call_sign"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore persists live sessions.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore keeps sessions in memory, for tests and single-node
// deployments without Redis.
type MemorySessionStore struct {
	mu   sync.RWMutex
	byID map[string]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{byID: make(map[string]Session)}
}

func (s *MemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[session.ID] = session
	return nil
}

func (s *MemorySessionStore) Find(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.byID, id)
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	out := session
	return &out, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}
