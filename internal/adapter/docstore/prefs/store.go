// Package prefs provides a DocumentStore on top of Fyne application preferences,
// for hosts that embed the deck in a Fyne window.
package prefs

import (
	"context"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// keyPrefix namespaces documents inside the shared preferences file.
const keyPrefix = "tunedeck.doc."

// Store keeps each document as one preference string with keys like "tunedeck.doc.<key>".
//
// Thread-safe: All operations protected by sync.RWMutex.
type Store struct {
	prefs  fyne.Preferences
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewStore creates a document store.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewStore(prefs fyne.Preferences, logger *slog.Logger) *Store {
	return &Store{
		prefs:  prefs,
		logger: logger.With(slog.String("component", "docstore.prefs")),
	}
}

// Read returns the document, or nil when the preference is unset.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body := s.prefs.String(keyPrefix + key)
	if body == "" {
		return nil, nil
	}
	return []byte(body), nil
}

// Write stores the document body as a preference string.
func (s *Store) Write(_ context.Context, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.SetString(keyPrefix+key, string(body))
	s.logger.Debug("document written", slog.String("key", key), slog.Int("bytes", len(body)))
	return nil
}

// Delete removes the preference.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.RemoveValue(keyPrefix + key)
	return nil
}

// Close is a no-op; Fyne persists preferences on its own schedule.
func (s *Store) Close() error { return nil }

var _ ports.DocumentStore = (*Store)(nil)
