package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrStateNotFound = errors.New("order session not found")

// Store is the session persistence contract used by the orchestrator.
type Store interface {
	Load(ctx context.Context, sessionID string) (*OrderSession, error)
	Save(ctx context.Context, session *OrderSession) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps sessions in a process-local map behind one coarse lock.
// Lookup and save are O(1) so contention stays negligible; mutation of a
// loaded session happens inside a single handler turn, and callers that may
// run two turns for one session id concurrently must serialize externally.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*OrderSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*OrderSession)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*OrderSession, error) {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return nil, ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[key]
	if !ok {
		return nil, ErrStateNotFound
	}
	return session, nil
}

func (m *MemoryStore) Save(ctx context.Context, session *OrderSession) error {
	if session == nil {
		return ErrNilSession
	}
	key := strings.TrimSpace(session.SessionID)
	if key == "" {
		return ErrInvalidSession
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = session
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// Len reports the number of live sessions. Exposed for diagnostics.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
