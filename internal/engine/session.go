package engine

import (
	"context"
	"sync"
)

// SessionStore is a session-scoped key-value store. The host owns session
// identity; the engine only ever addresses values by (sessionID, key).
// Get returns ("", nil) for a missing key.
type SessionStore interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID, key string) error
}

// MemoryStore is the in-process SessionStore backend. It is the default for
// single-node deployments and the fixture for tests.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func memKey(sessionID, key string) string {
	return sessionID + "\x00" + key
}

func (s *MemoryStore) Get(_ context.Context, sessionID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[memKey(sessionID, key)], nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[memKey(sessionID, key)] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, memKey(sessionID, key))
	return nil
}
