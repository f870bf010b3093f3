// Package memory provides an in-process DocumentStore.
package memory

import (
	"context"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Store keeps documents in a map guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// FailWrite, when set, is returned by Write.
	FailWrite error
	writes    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// Read returns a copy of the document, or nil when absent.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.docs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), body...), nil
}

// Write replaces the document.
func (s *Store) Write(_ context.Context, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrite != nil {
		return s.FailWrite
	}
	s.docs[key] = append([]byte(nil), body...)
	s.writes++
	return nil
}

// Delete removes the document.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.docs, key)
	s.mu.Unlock()
	return nil
}

// Writes returns how many successful writes the store has seen.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

var _ ports.DocumentStore = (*Store)(nil)
