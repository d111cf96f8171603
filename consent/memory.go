package consent

import (
	"context"
	"sync"
)

// MemoryStore holds consent flags in process memory. Useful for tests
// and for embedders that explicitly do not want consent to survive a
// restart.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]bool)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	granted, ok := s.flags[key]
	if !ok {
		return Undecided, nil
	}
	return decisionOf(granted), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[key] = granted
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, key)
	return nil
}
