package memory

import (
	"context"
	"sync"

	"github.com/hongminglow/recruit-portal/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps entries in a map guarded by a RWMutex. It backs tests and
// single-process deployments.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *Store) CompareAndSwap(_ context.Context, key, prev, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[key] != prev {
		return false, nil
	}
	s.entries[key] = next
	return true, nil
}
