package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// DefaultMaxLogEntries bounds the action log when no limit is configured.
const DefaultMaxLogEntries = 200

// UndoFunc reverses one kind of action.
type UndoFunc func(ctx context.Context, entry domain.ActionLogEntry) error

// ActionLog is an append-only record of mutations, each reversible at most once.
//
// When the log grows past its limit it drops the oldest consumed entries first and
// then the oldest entries overall. Dropped entries are reported to the eviction
// hook so resources only they could restore can be released.
//
// It is not safe for concurrent use; the Deck serialises access.
type ActionLog struct {
	entries    []domain.ActionLogEntry
	maxEntries int
	handlers   map[domain.ActionType]UndoFunc
	onEvict    func(evicted []domain.ActionLogEntry)
	now        func() time.Time
	logger     *slog.Logger
}

// NewActionLog creates an empty log keeping at most maxEntries entries.
func NewActionLog(maxEntries int, logger *slog.Logger) *ActionLog {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxLogEntries
	}
	return &ActionLog{
		maxEntries: maxEntries,
		handlers:   make(map[domain.ActionType]UndoFunc),
		now:        time.Now,
		logger:     logger.With(slog.String("service", "ActionLog")),
	}
}

// Handle registers the reversal for an action type.
func (l *ActionLog) Handle(t domain.ActionType, fn UndoFunc) {
	l.handlers[t] = fn
}

// OnEvict sets the hook called with entries dropped by the retention limit.
func (l *ActionLog) OnEvict(fn func(evicted []domain.ActionLogEntry)) {
	l.onEvict = fn
}

// Record appends an undoable entry and returns it.
func (l *ActionLog) Record(t domain.ActionType, payload domain.ActionPayload) domain.ActionLogEntry {
	entry := domain.ActionLogEntry{
		ID:        "action_" + uuid.NewString(),
		Type:      t,
		Timestamp: l.now(),
		Payload:   payload,
		Undoable:  true,
	}
	l.entries = append(l.entries, entry)
	l.logger.Debug("action recorded", slog.String("id", entry.ID), slog.String("type", string(t)))
	l.enforceLimit()
	return entry
}

func (l *ActionLog) enforceLimit() {
	var evicted []domain.ActionLogEntry
	for len(l.entries) > l.maxEntries {
		i := slices.IndexFunc(l.entries, func(e domain.ActionLogEntry) bool { return !e.Undoable })
		if i < 0 {
			i = 0
		}
		evicted = append(evicted, l.entries[i])
		l.entries = slices.Delete(l.entries, i, i+1)
	}
	if len(evicted) > 0 && l.onEvict != nil {
		l.onEvict(evicted)
	}
}

// Undo reverses the entry with id. Unknown or consumed entries yield ErrNotUndoable.
// A failed reversal leaves the entry undoable.
func (l *ActionLog) Undo(ctx context.Context, id string) (domain.ActionLogEntry, error) {
	i := slices.IndexFunc(l.entries, func(e domain.ActionLogEntry) bool { return e.ID == id })
	if i < 0 || !l.entries[i].Undoable {
		return domain.ActionLogEntry{}, fmt.Errorf("%w: %s", domain.ErrNotUndoable, id)
	}
	entry := l.entries[i]

	fn, ok := l.handlers[entry.Type]
	if !ok {
		return entry, fmt.Errorf("%w: no reversal for %s", domain.ErrNotUndoable, entry.Type)
	}
	if err := fn(ctx, entry); err != nil {
		return entry, err
	}

	// the handler may have recorded or evicted entries; look the entry up again
	if j := slices.IndexFunc(l.entries, func(e domain.ActionLogEntry) bool { return e.ID == id }); j >= 0 {
		l.entries[j].Undoable = false
		entry = l.entries[j]
	} else {
		entry.Undoable = false
	}
	l.logger.Info("action undone", slog.String("id", id), slog.String("type", string(entry.Type)))
	return entry, nil
}

// Latest returns the most recent undoable entry.
func (l *ActionLog) Latest() (domain.ActionLogEntry, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Undoable {
			return l.entries[i], true
		}
	}
	return domain.ActionLogEntry{}, false
}

// Entry returns the entry with id.
func (l *ActionLog) Entry(id string) (domain.ActionLogEntry, bool) {
	i := slices.IndexFunc(l.entries, func(e domain.ActionLogEntry) bool { return e.ID == id })
	if i < 0 {
		return domain.ActionLogEntry{}, false
	}
	return l.entries[i], true
}

// Entries returns all entries, oldest first.
func (l *ActionLog) Entries() []domain.ActionLogEntry {
	return slices.Clone(l.entries)
}

// Len returns the number of retained entries.
func (l *ActionLog) Len() int {
	return len(l.entries)
}

// Clear drops every entry and returns them.
func (l *ActionLog) Clear() []domain.ActionLogEntry {
	cleared := l.entries
	l.entries = nil
	return cleared
}

// Load replaces the content from a persisted document, keeping unknown entry
// types out and applying the retention limit.
func (l *ActionLog) Load(doc domain.ActionLogDocument) {
	l.entries = l.entries[:0]
	for _, e := range doc.Entries {
		if !e.Type.Valid() || e.ID == "" {
			l.logger.Warn("skipping malformed action log entry", slog.String("id", e.ID), slog.String("type", string(e.Type)))
			continue
		}
		l.entries = append(l.entries, e)
	}
	l.enforceLimit()
}

// Document returns the persisted form of the log.
func (l *ActionLog) Document() domain.ActionLogDocument {
	return domain.ActionLogDocument{Version: 1, Entries: l.Entries()}
}

// PendingTrackIDs returns track ids referenced by undoable entries, which must
// keep their blobs.
func (l *ActionLog) PendingTrackIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, e := range l.entries {
		if !e.Undoable {
			continue
		}
		for _, id := range e.Payload.TrackIDs() {
			ids[id] = struct{}{}
		}
	}
	return ids
}
