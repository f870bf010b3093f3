package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

func (d *Deck) registerUndoHandlers() {
	d.history.Handle(domain.ActionTrackAdd, d.undoTrackAdd)
	d.history.Handle(domain.ActionTrackRemove, d.undoTrackRemove)
	d.history.Handle(domain.ActionTrackMove, d.undoTrackMove)
	d.history.Handle(domain.ActionPlaylistCreate, d.undoPlaylistCreate)
	d.history.Handle(domain.ActionPlaylistDelete, d.undoPlaylistDelete)
}

// undoTrackAdd removes the added tracks and deletes their blobs.
func (d *Deck) undoTrackAdd(ctx context.Context, e domain.ActionLogEntry) error {
	key := domain.ParseKey(e.Payload.PlaylistID)
	ids := e.Payload.TrackIDs()

	removed, _ := d.playlists.RemoveByID(key, ids...)
	for _, t := range removed {
		d.tracks.Dispose(t)
	}
	d.purgeOrphans(ctx, ids, e.ID)

	if err := d.player.Settle(ctx, true); err != nil {
		d.logger.Warn("reloading after undo failed", slog.Any("error", err))
	}
	d.playlistUpdated(key)
	return nil
}

// undoTrackRemove puts removed tracks back at their recorded positions,
// clamped to the current length. Handles are resolved again on demand.
func (d *Deck) undoTrackRemove(_ context.Context, e domain.ActionLogEntry) error {
	key := domain.ParseKey(e.Payload.PlaylistID)
	if !d.playlists.Exists(key) {
		return domain.NewNotFoundError("playlist", key.ID())
	}

	for _, at := range byPosition(e.Payload.Tracks) {
		if d.playlists.Contains(at.ID) {
			continue
		}
		d.playlists.InsertAt(key, at.Position, domain.TrackFromRecord(at.Record()))
	}
	d.playlistUpdated(key)
	return nil
}

// undoTrackMove takes the moved tracks out of the target and reinserts them into
// the source at the positions they were taken from. Tracks no longer in the
// target are skipped.
func (d *Deck) undoTrackMove(ctx context.Context, e domain.ActionLogEntry) error {
	source := domain.ParseKey(e.Payload.SourceID)
	target := domain.ParseKey(e.Payload.TargetID)
	if !d.playlists.Exists(source) {
		return domain.NewNotFoundError("playlist", source.ID())
	}
	// a deleted target holds the tracks in its delete entry; undo that first
	if !d.playlists.Exists(target) {
		return domain.NewNotFoundError("playlist", target.ID())
	}

	taken, _ := d.playlists.RemoveByID(target, e.Payload.TrackIDs()...)
	byID := make(map[string]*domain.Track, len(taken))
	for _, t := range taken {
		byID[t.ID] = t
	}

	for _, at := range byPosition(e.Payload.Tracks) {
		t, ok := byID[at.ID]
		if !ok {
			continue
		}
		d.playlists.InsertAt(source, at.Position, t)
	}

	if err := d.player.Settle(ctx, true); err != nil {
		d.logger.Warn("reloading after undo failed", slog.Any("error", err))
	}
	d.playlistUpdated(source)
	d.playlistUpdated(target)
	return nil
}

// undoPlaylistCreate deletes the playlist if it is still there. A playlist that
// has received tracks since is kept: its tracks arrived through entries of their
// own, which would lose their target.
func (d *Deck) undoPlaylistCreate(ctx context.Context, e domain.ActionLogEntry) error {
	key := domain.ParseKey(e.Payload.PlaylistID)
	p, ok := d.playlists.Get(key)
	if !ok || key.IsQueue() {
		return nil
	}
	if p.Len() > 0 {
		return domain.NewInvariantViolation("undo-create", fmt.Sprintf("playlist %q is not empty", p.Name))
	}

	if _, err := d.playlists.DeletePlaylist(ctx, key); err != nil {
		return err
	}
	if d.player.Viewed() == key {
		if err := d.player.SwitchPlaylist(ctx, domain.QueueKey()); err != nil {
			return err
		}
	}
	d.events.Add(domain.NewPlaylistDeletedEvent(key, p.Name))
	return nil
}

// undoPlaylistDelete recreates the playlist from its snapshot under the same id,
// unless a playlist with that id exists again.
func (d *Deck) undoPlaylistDelete(_ context.Context, e domain.ActionLogEntry) error {
	if e.Payload.Playlist == nil {
		return domain.NewValidationError("payload", e.ID, "delete entry carries no snapshot")
	}
	snapshot := *e.Payload.Playlist
	key, ok := d.playlists.Restore(snapshot)
	if !ok {
		d.logger.Info("playlist already present, nothing to restore", slog.String("id", key.ID()))
		return nil
	}
	d.events.Add(domain.NewPlaylistCreatedEvent(key, snapshot.Name))
	d.playlistUpdated(key)
	return nil
}

// byPosition orders tracks by recorded position so ascending reinsertion lands
// every track at its original index. Tracks sharing a position, as in entries
// written without positions, are spread after one another in recorded order.
func byPosition(tracks []domain.ActionTrack) []domain.ActionTrack {
	out := slices.Clone(tracks)
	slices.SortStableFunc(out, func(a, b domain.ActionTrack) int { return a.Position - b.Position })
	for i := 1; i < len(out); i++ {
		if out[i].Position <= out[i-1].Position {
			out[i].Position = out[i-1].Position + 1
		}
	}
	return out
}
