package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

const playlistIDPrefix = "playlist_"

// playlistObserver is told about every structural change so the view state
// (active pointer, selection) can follow the content.
type playlistObserver interface {
	tracksRemoved(key domain.PlaylistKey, positions []int)
	tracksInserted(key domain.PlaylistKey, at, n int)
	playlistCleared(key domain.PlaylistKey)
}

// PlaylistRegistry owns the queue and the named playlists.
//
// It is not safe for concurrent use; the Deck serialises access.
type PlaylistRegistry struct {
	tracks   *TrackRegistry
	observer playlistObserver
	logger   *slog.Logger

	queue *domain.Playlist
	named map[string]*domain.Playlist
	order []string // creation order of named playlists
}

// NewPlaylistRegistry creates a registry holding an empty queue.
func NewPlaylistRegistry(tracks *TrackRegistry, logger *slog.Logger) *PlaylistRegistry {
	return &PlaylistRegistry{
		tracks: tracks,
		logger: logger.With(slog.String("service", "PlaylistRegistry")),
		queue:  &domain.Playlist{Key: domain.QueueKey(), Name: domain.QueueName},
		named:  make(map[string]*domain.Playlist),
	}
}

func (r *PlaylistRegistry) setObserver(o playlistObserver) {
	r.observer = o
}

// Get returns the playlist for key.
func (r *PlaylistRegistry) Get(key domain.PlaylistKey) (*domain.Playlist, bool) {
	if key.IsQueue() {
		return r.queue, true
	}
	p, ok := r.named[key.ID()]
	return p, ok
}

// Exists reports whether key resolves to a playlist. The queue always exists.
func (r *PlaylistRegistry) Exists(key domain.PlaylistKey) bool {
	_, ok := r.Get(key)
	return ok
}

// Tracks returns the content of key; unknown keys yield an empty sequence.
// The returned slice is a copy but shares the track values.
func (r *PlaylistRegistry) Tracks(key domain.PlaylistKey) []*domain.Track {
	p, ok := r.Get(key)
	if !ok {
		return []*domain.Track{}
	}
	return slices.Clone(p.Tracks)
}

// Len returns the number of tracks in key, zero when unknown.
func (r *PlaylistRegistry) Len(key domain.PlaylistKey) int {
	p, _ := r.Get(key)
	return p.Len()
}

// Track returns the track at pos in key.
func (r *PlaylistRegistry) Track(key domain.PlaylistKey, pos int) (*domain.Track, bool) {
	p, ok := r.Get(key)
	if !ok || pos < 0 || pos >= len(p.Tracks) {
		return nil, false
	}
	return p.Tracks[pos], true
}

// Playlists returns the queue followed by named playlists in creation order.
func (r *PlaylistRegistry) Playlists() []*domain.Playlist {
	out := make([]*domain.Playlist, 0, len(r.order)+1)
	out = append(out, r.queue)
	for _, id := range r.order {
		out = append(out, r.named[id])
	}
	return out
}

// Contains reports whether any playlist holds a track with id.
func (r *PlaylistRegistry) Contains(trackID string) bool {
	for _, p := range r.Playlists() {
		if p.IndexOf(trackID) >= 0 {
			return true
		}
	}
	return false
}

// CreatePlaylist adds an empty named playlist. Names are trimmed and must not be blank.
func (r *PlaylistRegistry) CreatePlaylist(name, cover string) (domain.PlaylistKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.PlaylistKey{}, domain.NewValidationError("name", name, "playlist name must not be empty")
	}

	id := playlistIDPrefix + uuid.NewString()
	r.add(&domain.Playlist{Key: domain.NamedKey(id), Name: name, Cover: cover})
	r.logger.Info("playlist created", slog.String("id", id), slog.String("name", name))
	return domain.NamedKey(id), nil
}

// Restore recreates a named playlist from a snapshot under its original id.
// It returns false when the id is taken or names the queue.
func (r *PlaylistRegistry) Restore(s domain.PlaylistSnapshot) (domain.PlaylistKey, bool) {
	key := domain.ParseKey(s.ID)
	if key.IsQueue() || r.Exists(key) {
		return key, false
	}
	p := &domain.Playlist{Key: key, Name: s.Name, Cover: s.Cover, Tracks: make([]*domain.Track, 0, len(s.Tracks))}
	for _, rec := range s.Tracks {
		p.Tracks = append(p.Tracks, domain.TrackFromRecord(rec))
	}
	r.add(p)
	return key, true
}

func (r *PlaylistRegistry) add(p *domain.Playlist) {
	r.named[p.Key.ID()] = p
	r.order = append(r.order, p.Key.ID())
}

func (r *PlaylistRegistry) checkDeletable(key domain.PlaylistKey) (*domain.Playlist, error) {
	if key.IsQueue() {
		return nil, domain.NewInvariantViolation("queue-permanent", "the current queue cannot be deleted")
	}
	p, ok := r.named[key.ID()]
	if !ok {
		return nil, domain.NewNotFoundError("playlist", key.ID())
	}
	return p, nil
}

// Detach removes a named playlist and releases its handles but keeps its blobs,
// so an undo can bring the tracks back playable.
func (r *PlaylistRegistry) Detach(key domain.PlaylistKey) (domain.PlaylistSnapshot, error) {
	p, err := r.checkDeletable(key)
	if err != nil {
		return domain.PlaylistSnapshot{}, err
	}

	snapshot := p.Snapshot()
	for _, t := range p.Tracks {
		r.tracks.Dispose(t)
	}
	delete(r.named, key.ID())
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == key.ID() })
	if r.observer != nil {
		r.observer.playlistCleared(key)
	}
	r.logger.Info("playlist removed", slog.String("id", key.ID()), slog.Int("tracks", len(snapshot.Tracks)))
	return snapshot, nil
}

// DeletePlaylist removes a named playlist, releasing handles and deleting blobs
// of tracks no other playlist holds.
func (r *PlaylistRegistry) DeletePlaylist(ctx context.Context, key domain.PlaylistKey) (domain.PlaylistSnapshot, error) {
	snapshot, err := r.Detach(key)
	if err != nil {
		return snapshot, err
	}
	var errs []error
	for _, rec := range snapshot.Tracks {
		if r.Contains(rec.ID) {
			continue
		}
		if err := r.tracks.PurgeID(ctx, rec.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return snapshot, errors.Join(errs...)
}

// InsertAt inserts tracks at pos (clamped to [0, len]) and returns the actual position.
func (r *PlaylistRegistry) InsertAt(key domain.PlaylistKey, pos int, tracks ...*domain.Track) (int, bool) {
	p, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	pos = max(0, min(pos, len(p.Tracks)))
	if len(tracks) == 0 {
		return pos, true
	}
	p.Tracks = slices.Insert(p.Tracks, pos, tracks...)
	if r.observer != nil {
		r.observer.tracksInserted(key, pos, len(tracks))
	}
	return pos, true
}

// Append adds tracks at the end of key.
func (r *PlaylistRegistry) Append(key domain.PlaylistKey, tracks ...*domain.Track) (int, bool) {
	return r.InsertAt(key, r.Len(key), tracks...)
}

// RemoveAt takes the tracks at positions out of key. Positions are de-duplicated,
// out-of-range ones ignored, and extraction runs in descending order so earlier
// removals do not shift later ones. Removed tracks are returned in ascending
// position order together with the positions actually removed. Handles are kept.
func (r *PlaylistRegistry) RemoveAt(key domain.PlaylistKey, positions ...int) ([]*domain.Track, []int) {
	p, ok := r.Get(key)
	if !ok {
		return nil, nil
	}
	valid := NormalizePositions(positions, len(p.Tracks))
	if len(valid) == 0 {
		return nil, nil
	}

	removed := make([]*domain.Track, len(valid))
	for i := len(valid) - 1; i >= 0; i-- {
		pos := valid[i]
		removed[i] = p.Tracks[pos]
		p.Tracks = slices.Delete(p.Tracks, pos, pos+1)
	}
	if r.observer != nil {
		r.observer.tracksRemoved(key, valid)
	}
	return removed, valid
}

// RemoveByID removes every track with one of ids from key and returns them.
func (r *PlaylistRegistry) RemoveByID(key domain.PlaylistKey, ids ...string) ([]*domain.Track, []int) {
	p, ok := r.Get(key)
	if !ok {
		return nil, nil
	}
	var positions []int
	for i, t := range p.Tracks {
		if slices.Contains(ids, t.ID) {
			positions = append(positions, i)
		}
	}
	return r.RemoveAt(key, positions...)
}

// Clear empties key, releasing handles and deleting blobs of tracks no other
// playlist holds.
func (r *PlaylistRegistry) Clear(ctx context.Context, key domain.PlaylistKey) ([]*domain.Track, error) {
	p, ok := r.Get(key)
	if !ok {
		return nil, domain.NewNotFoundError("playlist", key.ID())
	}
	removed := p.Tracks
	p.Tracks = nil
	if r.observer != nil {
		r.observer.playlistCleared(key)
	}

	var errs []error
	for _, t := range removed {
		r.tracks.Dispose(t)
		if r.Contains(t.ID) {
			continue
		}
		if err := r.tracks.PurgeID(ctx, t.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

// Load replaces the whole registry content from a library document.
// Tracks come back without handles.
func (r *PlaylistRegistry) Load(doc *domain.LibraryDocument) {
	r.ReleaseAll()
	r.queue = &domain.Playlist{Key: domain.QueueKey(), Name: domain.QueueName}
	r.named = make(map[string]*domain.Playlist)
	r.order = nil

	for _, rec := range doc.Queue {
		r.queue.Tracks = append(r.queue.Tracks, domain.TrackFromRecord(rec))
	}
	for _, s := range doc.Playlists {
		if _, ok := r.Restore(s); !ok {
			r.logger.Warn("skipping duplicate playlist in document", slog.String("id", s.ID))
		}
	}
}

// Document captures the persisted form of every playlist.
func (r *PlaylistRegistry) Document() (queue []domain.TrackRecord, playlists []domain.PlaylistSnapshot) {
	queue = r.queue.Snapshot().Tracks
	playlists = make([]domain.PlaylistSnapshot, 0, len(r.order))
	for _, id := range r.order {
		playlists = append(playlists, r.named[id].Snapshot())
	}
	return queue, playlists
}

// Unresolved returns every track that holds no handle yet.
func (r *PlaylistRegistry) Unresolved() []*domain.Track {
	var out []*domain.Track
	for _, p := range r.Playlists() {
		for _, t := range p.Tracks {
			if !t.HasHandle() {
				out = append(out, t)
			}
		}
	}
	return out
}

// FindTrack returns the first track with id, searching the queue first.
func (r *PlaylistRegistry) FindTrack(id string) (*domain.Track, bool) {
	for _, p := range r.Playlists() {
		if i := p.IndexOf(id); i >= 0 {
			return p.Tracks[i], true
		}
	}
	return nil, false
}

// FindByHandle returns the track holding handle.
func (r *PlaylistRegistry) FindByHandle(handle domain.PlaybackHandle) (*domain.Track, bool) {
	if handle == domain.InvalidPlaybackHandle {
		return nil, false
	}
	for _, p := range r.Playlists() {
		for _, t := range p.Tracks {
			if t.Handle == handle {
				return t, true
			}
		}
	}
	return nil, false
}

// ReleaseAll revokes every live handle.
func (r *PlaylistRegistry) ReleaseAll() {
	for _, p := range r.Playlists() {
		for _, t := range p.Tracks {
			r.tracks.Dispose(t)
		}
	}
}

// NormalizePositions sorts, de-duplicates and bounds positions against n.
func NormalizePositions(positions []int, n int) []int {
	out := make([]int, 0, len(positions))
	for _, p := range positions {
		if p >= 0 && p < n {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
