package service

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// PlayerService tracks what the user is looking at and what is playing: the
// viewed playlist, the active position in it, the multi-selection and the
// playback modes. It drives the playback engine.
//
// It follows playlist content through the registry's observer hooks. When the
// active track is taken out of the viewed playlist the service only marks the
// pointer stale; Settle then reloads the neighbour or stops.
//
// It is not safe for concurrent use; the Deck serialises access.
type PlayerService struct {
	logger    *slog.Logger
	engine    ports.PlaybackEngine
	playlists *PlaylistRegistry
	tracks    *TrackRegistry
	emit      func(...domain.Event)

	// State
	viewed   domain.PlaylistKey
	active   int // -1 when nothing is active
	playing  bool
	paused   bool
	volume   float64
	muted    bool
	repeat   domain.RepeatMode
	shuffle  bool
	selected map[int]struct{}

	// activeLeft is set when the active track was removed from the view
	activeLeft bool
}

// NewPlayerService creates a player viewing the queue with nothing active.
func NewPlayerService(
	logger *slog.Logger,
	engine ports.PlaybackEngine,
	playlists *PlaylistRegistry,
	tracks *TrackRegistry,
	emit func(...domain.Event),
) *PlayerService {
	s := &PlayerService{
		logger:    logger.With(slog.String("service", "PlayerService")),
		engine:    engine,
		playlists: playlists,
		tracks:    tracks,
		emit:      emit,
		viewed:    domain.QueueKey(),
		active:    -1,
		volume:    domain.DefaultVolume,
		selected:  make(map[int]struct{}),
	}
	playlists.setObserver(s)
	return s
}

// State returns a snapshot of the view and playback state.
func (s *PlayerService) State() domain.SessionState {
	st := domain.SessionState{
		Viewed:      s.viewed,
		ActiveIndex: s.active,
		Status:      domain.StatusStopped,
		Volume:      s.volume,
		Muted:       s.muted,
		Repeat:      s.repeat,
		Shuffle:     s.shuffle,
		Selected:    s.Selected(),
	}
	switch {
	case s.playing:
		st.Status = domain.StatusPlaying
	case s.paused:
		st.Status = domain.StatusPaused
	}
	if t, ok := s.playlists.Track(s.viewed, s.active); ok {
		c := *t
		st.ActiveTrack = &c
	}
	return st
}

// Viewed returns the key of the viewed playlist.
func (s *PlayerService) Viewed() domain.PlaylistKey {
	return s.viewed
}

// Volume returns the user volume, independent of mute.
func (s *PlayerService) Volume() float64 {
	return s.volume
}

// SwitchPlaylist changes the view to key, clears the selection and loads the
// first track, if any, without starting playback.
func (s *PlayerService) SwitchPlaylist(ctx context.Context, key domain.PlaylistKey) error {
	if !s.playlists.Exists(key) {
		return domain.NewNotFoundError("playlist", key.ID())
	}

	s.stopEngine()
	s.viewed = key
	s.active = -1
	s.activeLeft = false
	s.clearSelection()

	if s.playlists.Len(key) > 0 {
		if err := s.LoadTrack(ctx, 0); err != nil {
			s.logger.Warn("first track of playlist not loadable", slog.String("playlist", key.ID()), slog.Any("error", err))
		}
	} else {
		s.emit(domain.NewActiveChangedEvent(key, -1))
	}
	return nil
}

// Restore sets the view and volume read from a persisted document without
// touching the engine beyond the volume.
func (s *PlayerService) Restore(key domain.PlaylistKey, volume *float64) {
	if !s.playlists.Exists(key) {
		key = domain.QueueKey()
	}
	s.viewed = key
	s.active = -1
	s.activeLeft = false
	s.clearSelection()
	if volume != nil && !math.IsNaN(*volume) {
		s.volume = clamp01(*volume)
	}
	if err := s.engine.SetVolume(s.effectiveVolume()); err != nil {
		s.logger.Warn("engine rejected volume", slog.Any("error", err))
	}
}

// LoadTrack makes pos the active position and hands its media to the engine.
// A track whose blob is gone stays active but unplayable: a TrackErrorEvent is
// emitted and ErrBlobMissing returned.
func (s *PlayerService) LoadTrack(ctx context.Context, pos int) error {
	track, ok := s.playlists.Track(s.viewed, pos)
	if !ok {
		return domain.ErrInvalidIndex
	}
	s.active = pos
	s.activeLeft = false

	handle, err := s.tracks.Resolve(ctx, track)
	if err != nil {
		s.stopEngine()
		s.logger.Warn("track cannot be loaded", slog.String("id", track.ID), slog.Any("error", err))
		s.emit(domain.NewTrackErrorEvent(track.ID, err), domain.NewActiveChangedEvent(s.viewed, pos))
		return err
	}

	s.paused = false
	if err := s.engine.Load(handle); err != nil {
		s.emit(domain.NewTrackErrorEvent(track.ID, err), domain.NewActiveChangedEvent(s.viewed, pos))
		return err
	}
	if err := s.engine.SetVolume(s.effectiveVolume()); err != nil {
		s.logger.Warn("engine rejected volume", slog.Any("error", err))
	}

	s.logger.Debug("track loaded", slog.String("id", track.ID), slog.Int("index", pos))
	s.emit(domain.NewTrackLoadedEvent(*track, handle, pos), domain.NewActiveChangedEvent(s.viewed, pos))
	return nil
}

// Play starts or resumes playback. An empty view is a no-op.
func (s *PlayerService) Play(ctx context.Context) error {
	if s.playlists.Len(s.viewed) == 0 {
		return nil
	}
	if s.engine.Loaded() == domain.InvalidPlaybackHandle {
		if err := s.LoadTrack(ctx, max(s.active, 0)); err != nil {
			return err
		}
	}

	track, _ := s.playlists.Track(s.viewed, s.active)
	if err := s.engine.Play(ctx); err != nil {
		s.logger.Error("playback failed", slog.Any("error", err))
		if track != nil {
			s.emit(domain.NewTrackErrorEvent(track.ID, err))
		}
		return err
	}
	s.playing = true
	s.paused = false
	if track != nil {
		s.emit(domain.NewTrackStartedEvent(*track))
	}
	return nil
}

// Pause pauses playback.
func (s *PlayerService) Pause() error {
	if !s.playing {
		return nil
	}
	if err := s.engine.Pause(); err != nil {
		return err
	}
	s.playing = false
	s.paused = true
	if track, ok := s.playlists.Track(s.viewed, s.active); ok {
		s.emit(domain.NewTrackPausedEvent(*track))
	}
	return nil
}

// TogglePlay pauses when playing and plays otherwise.
func (s *PlayerService) TogglePlay(ctx context.Context) error {
	if s.playlists.Len(s.viewed) == 0 {
		return nil
	}
	if s.playing {
		return s.Pause()
	}
	return s.Play(ctx)
}

// Stop halts playback; the active position is kept.
func (s *PlayerService) Stop() {
	s.stopEngine()
	s.emit(domain.NewTrackStoppedEvent())
}

func (s *PlayerService) stopEngine() {
	if err := s.engine.Stop(); err != nil {
		s.logger.Warn("engine stop failed", slog.Any("error", err))
	}
	s.playing = false
	s.paused = false
}

// Next moves to the following track, wrapping to the first.
func (s *PlayerService) Next(ctx context.Context) error {
	n := s.playlists.Len(s.viewed)
	if n == 0 {
		return nil
	}
	return s.jump(ctx, (s.active+1)%n)
}

// Previous moves to the preceding track, wrapping to the last.
func (s *PlayerService) Previous(ctx context.Context) error {
	n := s.playlists.Len(s.viewed)
	if n == 0 {
		return nil
	}
	i := s.active - 1
	if i < 0 {
		i = n - 1
	}
	return s.jump(ctx, i)
}

func (s *PlayerService) jump(ctx context.Context, pos int) error {
	wasPlaying := s.playing
	if err := s.LoadTrack(ctx, pos); err != nil {
		s.playing = false
		return err
	}
	if wasPlaying {
		return s.Play(ctx)
	}
	return nil
}

// Select plays the track at pos, as a click on a playlist row does.
func (s *PlayerService) Select(ctx context.Context, pos int) error {
	if err := s.LoadTrack(ctx, pos); err != nil {
		return err
	}
	return s.Play(ctx)
}

// HandleEnded reacts to the engine finishing handle according to the repeat mode.
// Stale notifications for media no longer loaded are ignored.
func (s *PlayerService) HandleEnded(ctx context.Context, handle domain.PlaybackHandle) error {
	track, ok := s.playlists.Track(s.viewed, s.active)
	if !ok || track.Handle != handle {
		return nil
	}

	switch s.repeat {
	case domain.RepeatOne:
		if err := s.engine.Seek(0); err != nil {
			s.logger.Debug("rewind failed", slog.Any("error", err))
		}
		return s.Play(ctx)
	case domain.RepeatAll:
		s.playing = true
		return s.Next(ctx)
	default:
		if s.active < s.playlists.Len(s.viewed)-1 {
			s.playing = true
			return s.Next(ctx)
		}
		s.Stop()
		return nil
	}
}

// Seek moves the playback position of the loaded track.
func (s *PlayerService) Seek(seconds float64) error {
	if seconds < 0 || math.IsNaN(seconds) {
		return domain.ErrInvalidPosition
	}
	return s.engine.Seek(seconds)
}

// SetVolume clamps v into [0, 1] and applies it unless muted.
func (s *PlayerService) SetVolume(v float64) error {
	if math.IsNaN(v) {
		return domain.ErrInvalidVolume
	}
	s.volume = clamp01(v)
	if !s.muted {
		if err := s.engine.SetVolume(s.volume); err != nil {
			return err
		}
	}
	s.emit(domain.NewVolumeChangedEvent(s.volume))
	return nil
}

// ToggleMute silences or restores output without losing the volume.
func (s *PlayerService) ToggleMute() error {
	s.muted = !s.muted
	if err := s.engine.SetVolume(s.effectiveVolume()); err != nil {
		s.muted = !s.muted
		return err
	}
	s.emit(domain.NewMuteToggledEvent(s.muted))
	return nil
}

// CycleRepeat advances none -> all -> one.
func (s *PlayerService) CycleRepeat() domain.RepeatMode {
	s.repeat = s.repeat.Next()
	s.emit(domain.NewRepeatChangedEvent(s.repeat))
	return s.repeat
}

// ToggleShuffle flips the shuffle flag. Track order is not affected.
func (s *PlayerService) ToggleShuffle() bool {
	s.shuffle = !s.shuffle
	s.emit(domain.NewShuffleToggledEvent(s.shuffle))
	return s.shuffle
}

func (s *PlayerService) effectiveVolume() float64 {
	if s.muted {
		return 0
	}
	return s.volume
}

// Settle resolves a stale active pointer left by a removal: it stops when the
// view is empty, otherwise it loads the track now at the clamped position.
// With resume set, playback continues if it was running.
func (s *PlayerService) Settle(ctx context.Context, resume bool) error {
	if !s.activeLeft {
		return nil
	}
	s.activeLeft = false

	n := s.playlists.Len(s.viewed)
	if n == 0 || s.active < 0 {
		s.active = -1
		s.Stop()
		s.emit(domain.NewActiveChangedEvent(s.viewed, -1))
		return nil
	}

	wasPlaying := s.playing
	pos := min(s.active, n-1)
	if err := s.LoadTrack(ctx, pos); err != nil {
		s.playing = false
		return err
	}
	if resume && wasPlaying {
		return s.Play(ctx)
	}
	s.playing = false
	return nil
}

// ToggleSelection adds or removes pos from the selection.
func (s *PlayerService) ToggleSelection(pos int) {
	if pos < 0 || pos >= s.playlists.Len(s.viewed) {
		return
	}
	if _, ok := s.selected[pos]; ok {
		delete(s.selected, pos)
	} else {
		s.selected[pos] = struct{}{}
	}
	s.emit(domain.NewSelectionChangedEvent(s.Selected()))
}

// SelectPositions adds positions to the selection, ignoring out-of-range ones.
func (s *PlayerService) SelectPositions(positions ...int) {
	for _, p := range NormalizePositions(positions, s.playlists.Len(s.viewed)) {
		s.selected[p] = struct{}{}
	}
	s.emit(domain.NewSelectionChangedEvent(s.Selected()))
}

// Deselect empties the selection.
func (s *PlayerService) Deselect() {
	s.clearSelection()
}

func (s *PlayerService) clearSelection() {
	if len(s.selected) == 0 {
		return
	}
	s.selected = make(map[int]struct{})
	s.emit(domain.NewSelectionChangedEvent(nil))
}

// Selected returns the selected positions in ascending order.
func (s *PlayerService) Selected() []int {
	out := make([]int, 0, len(s.selected))
	for p := range s.selected {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// playlistObserver

func (s *PlayerService) tracksRemoved(key domain.PlaylistKey, positions []int) {
	if key != s.viewed {
		return
	}
	below := func(i int) int {
		n, _ := slices.BinarySearch(positions, i)
		return n
	}

	if s.active >= 0 {
		if _, hit := slices.BinarySearch(positions, s.active); hit {
			s.activeLeft = true
		}
		s.active -= below(s.active)
	}

	if len(s.selected) > 0 {
		next := make(map[int]struct{}, len(s.selected))
		for p := range s.selected {
			if _, hit := slices.BinarySearch(positions, p); !hit {
				next[p-below(p)] = struct{}{}
			}
		}
		s.selected = next
	}
}

func (s *PlayerService) tracksInserted(key domain.PlaylistKey, at, n int) {
	if key != s.viewed {
		return
	}
	if s.active >= at {
		s.active += n
	}
	if len(s.selected) > 0 {
		next := make(map[int]struct{}, len(s.selected))
		for p := range s.selected {
			if p >= at {
				p += n
			}
			next[p] = struct{}{}
		}
		s.selected = next
	}
}

func (s *PlayerService) playlistCleared(key domain.PlaylistKey) {
	if key != s.viewed {
		return
	}
	if s.active >= 0 {
		s.activeLeft = true
	}
	s.active = -1
	s.selected = make(map[int]struct{})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
