package service

import (
	"log/slog"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// MoveResult describes a completed transfer.
type MoveResult struct {
	Source domain.PlaylistKey
	Target domain.PlaylistKey

	// Tracks are the moved tracks in their original (ascending) source order
	Tracks []*domain.Track

	// Positions are the source positions the tracks were taken from
	Positions []int

	// InsertedAt is the target position of the first moved track
	InsertedAt int
}

// ActionTracks converts the result into action log track records.
func (m *MoveResult) ActionTracks() []domain.ActionTrack {
	out := make([]domain.ActionTrack, len(m.Tracks))
	for i, t := range m.Tracks {
		out[i] = domain.ActionTrack{ID: t.ID, Name: t.Name, DurationSeconds: t.DurationSeconds, Position: m.Positions[i]}
	}
	return out
}

// TransferEngine moves tracks between playlists. Stale references (missing
// playlists, out-of-range positions, same source and target) are silent no-ops.
// Handles travel with their tracks.
type TransferEngine struct {
	playlists *PlaylistRegistry
	logger    *slog.Logger
}

// NewTransferEngine creates a transfer engine over playlists.
func NewTransferEngine(playlists *PlaylistRegistry, logger *slog.Logger) *TransferEngine {
	return &TransferEngine{
		playlists: playlists,
		logger:    logger.With(slog.String("service", "TransferEngine")),
	}
}

// MoveOne moves the track at pos from source to target.
func (e *TransferEngine) MoveOne(source domain.PlaylistKey, pos int, target domain.PlaylistKey) (*MoveResult, bool) {
	return e.MoveMany(source, []int{pos}, target)
}

// MoveMany moves the tracks at positions from source to target. The queue
// receives them at its front, any other playlist at its end; either way the
// original relative order is kept.
func (e *TransferEngine) MoveMany(source domain.PlaylistKey, positions []int, target domain.PlaylistKey) (*MoveResult, bool) {
	if source == target {
		return nil, false
	}
	// both ends are re-checked here; a drop may arrive after a delete
	if !e.playlists.Exists(source) || !e.playlists.Exists(target) {
		e.logger.Debug("move ignored, playlist missing",
			slog.String("source", source.ID()), slog.String("target", target.ID()))
		return nil, false
	}
	if len(NormalizePositions(positions, e.playlists.Len(source))) == 0 {
		return nil, false
	}

	tracks, removed := e.playlists.RemoveAt(source, positions...)

	insertAt := e.playlists.Len(target)
	if target.IsQueue() {
		insertAt = 0
	}
	at, _ := e.playlists.InsertAt(target, insertAt, tracks...)

	e.logger.Debug("tracks moved",
		slog.String("source", source.ID()),
		slog.String("target", target.ID()),
		slog.Int("count", len(tracks)))

	return &MoveResult{
		Source:     source,
		Target:     target,
		Tracks:     tracks,
		Positions:  removed,
		InsertedAt: at,
	}, true
}
