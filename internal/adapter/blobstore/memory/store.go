// Package memory provides an in-process BlobStore for tests and ephemeral sessions.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Store keeps payloads in a map guarded by a RWMutex.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailPut, when set, is returned by Put. Tests use it to simulate quota errors.
	FailPut error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Put stores a copy of data under a new key.
func (s *Store) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPut != nil {
		return "", s.FailPut
	}
	key := blobstore.NewKey()
	s.blobs[key] = append([]byte(nil), data...)
	return key, nil
}

// Get returns a copy of the payload, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[id]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Delete removes the payload if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.blobs, id)
	s.mu.Unlock()
	return nil
}

// List returns all keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored payloads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

var (
	_ ports.BlobStore  = (*Store)(nil)
	_ ports.BlobLister = (*Store)(nil)
)
