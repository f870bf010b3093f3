// Package handles provides the in-process playback handle table.
package handles

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Prefix marks every handle minted by a Table.
const Prefix = "blob:"

// Table maps playback handles to in-memory payloads until they are revoked.
type Table struct {
	mu      sync.RWMutex
	entries map[domain.PlaybackHandle][]byte
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{entries: make(map[domain.PlaybackHandle][]byte)}
}

// Create mints a new handle for data. The table keeps a reference to data,
// callers must not modify it afterwards.
func (t *Table) Create(data []byte) domain.PlaybackHandle {
	h := domain.PlaybackHandle(Prefix + uuid.NewString())

	t.mu.Lock()
	t.entries[h] = data
	t.mu.Unlock()
	return h
}

// Open returns the payload behind a live handle.
func (t *Table) Open(handle domain.PlaybackHandle) ([]byte, bool) {
	if !strings.HasPrefix(string(handle), Prefix) {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	data, ok := t.entries[handle]
	return data, ok
}

// Revoke frees the handle. Revoking twice is a no-op.
func (t *Table) Revoke(handle domain.PlaybackHandle) {
	t.mu.Lock()
	delete(t.entries, handle)
	t.mu.Unlock()
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

var _ ports.HandleTable = (*Table)(nil)
