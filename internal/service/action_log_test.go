package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

func TestActionLog_UndoOnce(t *testing.T) {
	log := NewActionLog(0, logger.NewTestLogger())
	var undone []string
	log.Handle(domain.ActionPlaylistCreate, func(_ context.Context, e domain.ActionLogEntry) error {
		undone = append(undone, e.Payload.PlaylistID)
		return nil
	})

	entry := log.Record(domain.ActionPlaylistCreate, domain.ActionPayload{PlaylistID: "playlist_1"})
	assert.True(t, entry.Undoable)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	got, err := log.Undo(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.False(t, got.Undoable)
	assert.Equal(t, []string{"playlist_1"}, undone)

	_, err = log.Undo(context.Background(), entry.ID)
	assert.ErrorIs(t, err, domain.ErrNotUndoable)
	assert.Len(t, undone, 1)

	stored, ok := log.Entry(entry.ID)
	require.True(t, ok)
	assert.False(t, stored.Undoable)
}

func TestActionLog_FailedReversalStaysUndoable(t *testing.T) {
	log := NewActionLog(0, logger.NewTestLogger())
	fail := true
	log.Handle(domain.ActionTrackRemove, func(context.Context, domain.ActionLogEntry) error {
		if fail {
			return domain.NewNotFoundError("playlist", "gone")
		}
		return nil
	})
	entry := log.Record(domain.ActionTrackRemove, domain.ActionPayload{PlaylistID: "gone"})

	_, err := log.Undo(context.Background(), entry.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	latest, ok := log.Latest()
	require.True(t, ok)
	assert.Equal(t, entry.ID, latest.ID)

	fail = false
	_, err = log.Undo(context.Background(), entry.ID)
	assert.NoError(t, err)
	_, ok = log.Latest()
	assert.False(t, ok)
}

func TestActionLog_MissingHandler(t *testing.T) {
	log := NewActionLog(0, logger.NewTestLogger())
	entry := log.Record(domain.ActionTrackMove, domain.ActionPayload{})
	_, err := log.Undo(context.Background(), entry.ID)
	assert.ErrorIs(t, err, domain.ErrNotUndoable)
}

func TestActionLog_RetentionPrefersConsumedEntries(t *testing.T) {
	log := NewActionLog(3, logger.NewTestLogger())
	log.Handle(domain.ActionPlaylistCreate, func(context.Context, domain.ActionLogEntry) error { return nil })

	var evicted []string
	log.OnEvict(func(entries []domain.ActionLogEntry) {
		for _, e := range entries {
			evicted = append(evicted, e.Payload.PlaylistID)
		}
	})

	first := log.Record(domain.ActionPlaylistCreate, domain.ActionPayload{PlaylistID: "1"})
	second := log.Record(domain.ActionPlaylistCreate, domain.ActionPayload{PlaylistID: "2"})
	log.Record(domain.ActionPlaylistCreate, domain.ActionPayload{PlaylistID: "3"})
	_, err := log.Undo(context.Background(), second.ID)
	require.NoError(t, err)

	log.Record(domain.ActionPlaylistCreate, domain.ActionPayload{PlaylistID: "4"})
	assert.Equal(t, []string{"2"}, evicted)

	log.Record(domain.ActionPlaylistCreate, domain.ActionPayload{PlaylistID: "5"})
	assert.Equal(t, []string{"2", "1"}, evicted)

	_, ok := log.Entry(first.ID)
	assert.False(t, ok)
	assert.Equal(t, 3, log.Len())
}

func TestActionLog_DocumentRoundTrip(t *testing.T) {
	log := NewActionLog(0, logger.NewTestLogger())
	log.Record(domain.ActionTrackRemove, domain.ActionPayload{
		PlaylistID: "current",
		Tracks:     []domain.ActionTrack{{ID: "track_a", Name: "a", Position: 2}},
	})
	doc := log.Document()

	doc.Entries = append(doc.Entries,
		domain.ActionLogEntry{ID: "action_bad", Type: "track-shuffle", Undoable: true},
		domain.ActionLogEntry{Type: domain.ActionTrackAdd, Undoable: true},
	)

	restored := NewActionLog(0, logger.NewTestLogger())
	restored.Load(doc)
	require.Equal(t, 1, restored.Len())
	assert.Equal(t, log.Entries(), restored.Entries())
	assert.Contains(t, restored.PendingTrackIDs(), "track_a")
}

func TestActionLog_PendingTrackIDs(t *testing.T) {
	log := NewActionLog(0, logger.NewTestLogger())
	log.Handle(domain.ActionTrackAdd, func(context.Context, domain.ActionLogEntry) error { return nil })

	add := log.Record(domain.ActionTrackAdd, domain.ActionPayload{Tracks: []domain.ActionTrack{{ID: "track_a"}}})
	log.Record(domain.ActionPlaylistDelete, domain.ActionPayload{Playlist: &domain.PlaylistSnapshot{
		ID:     "playlist_x",
		Tracks: []domain.TrackRecord{{ID: "track_b"}},
	}})
	_, err := log.Undo(context.Background(), add.ID)
	require.NoError(t, err)

	pending := log.PendingTrackIDs()
	assert.NotContains(t, pending, "track_a")
	assert.Contains(t, pending, "track_b")

	cleared := log.Clear()
	assert.Len(t, cleared, 2)
	assert.Zero(t, log.Len())
	assert.Empty(t, log.PendingTrackIDs())
}

func TestActionLog_UndoUnknown(t *testing.T) {
	log := NewActionLog(0, logger.NewTestLogger())
	_, err := log.Undo(context.Background(), "action_missing")
	assert.True(t, errors.Is(err, domain.ErrNotUndoable))
}
