// Package memory provides an in-process KeyValueStore.
package memory

import (
	"context"
	"sync"

	"github.com/echoverse/echoverse/internal/ports"
)

// Store keeps values in a map. Contents are lost on exit.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Get implements ports.KeyValueStore.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements ports.KeyValueStore.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete implements ports.KeyValueStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Close implements ports.KeyValueStore.
func (s *Store) Close() error { return nil }

var _ ports.KeyValueStore = (*Store)(nil)
