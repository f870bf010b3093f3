package service

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

func TestPlayerService_PlayPauseStop(t *testing.T) {
	f := newDeckFixture(t)
	f.ingest("a.mp3", "b.mp3")

	f.handle(RequestPlayback{Command: CommandPlay})
	assert.Equal(t, domain.StatusPlaying, f.deck.State().Status)
	assert.Equal(t, domain.StatusPlaying, f.engine.Status())
	require.Len(t, f.eventsOf(domain.EventTrackStarted), 1)

	f.handle(RequestPlayback{Command: CommandTogglePlay})
	assert.Equal(t, domain.StatusPaused, f.deck.State().Status)
	assert.Len(t, f.eventsOf(domain.EventTrackPaused), 1)

	f.handle(RequestPlayback{Command: CommandTogglePlay})
	assert.Equal(t, domain.StatusPlaying, f.deck.State().Status)

	f.handle(RequestPlayback{Command: CommandStop})
	assert.Equal(t, domain.StatusStopped, f.deck.State().Status)
	assert.Equal(t, 0, f.deck.State().ActiveIndex)

	// play after stop reloads the active track
	f.handle(RequestPlayback{Command: CommandPlay})
	assert.Equal(t, domain.StatusPlaying, f.deck.State().Status)
	assert.Equal(t, "a", f.activeName())
}

func TestPlayerService_PlayEmptyViewIsNoop(t *testing.T) {
	f := newDeckFixture(t)
	f.handle(RequestPlayback{Command: CommandPlay})
	f.handle(RequestPlayback{Command: CommandNext})
	f.handle(RequestPlayback{Command: CommandPrevious})
	assert.Equal(t, domain.StatusStopped, f.deck.State().Status)
	assert.Zero(t, f.engine.Plays())
}

func TestPlayerService_PlayRejectedByEngine(t *testing.T) {
	f := newDeckFixture(t)
	f.ingest("a.mp3")
	f.engine.SetFailPlay(true)

	_, err := f.deck.Handle(f.ctx, RequestPlayback{Command: CommandPlay})
	assert.ErrorIs(t, err, domain.ErrPlaybackFailed)
	assert.Equal(t, domain.StatusStopped, f.deck.State().Status)
	assert.NotEmpty(t, f.eventsOf(domain.EventTrackError))
}

func TestPlayerService_NextPreviousWrap(t *testing.T) {
	f := newDeckFixture(t)
	f.ingest("a.mp3", "b.mp3", "c.mp3")

	f.handle(RequestPlayback{Command: CommandPrevious})
	assert.Equal(t, "c", f.activeName())
	assert.Equal(t, domain.StatusStopped, f.deck.State().Status)

	f.handle(RequestPlayback{Command: CommandPlay})
	f.handle(RequestPlayback{Command: CommandNext})
	assert.Equal(t, "a", f.activeName())
	assert.Equal(t, domain.StatusPlaying, f.deck.State().Status)

	f.handle(RequestPlayback{Command: CommandNext})
	assert.Equal(t, "b", f.activeName())
}

func TestPlayerService_EndedAdvancesByRepeatMode(t *testing.T) {
	tests := []struct {
		name       string
		repeat     domain.RepeatMode
		start      int
		wantActive string
		wantStatus domain.PlaybackStatus
	}{
		{"none advances", domain.RepeatNone, 0, "b", domain.StatusPlaying},
		{"none stops at end", domain.RepeatNone, 1, "b", domain.StatusStopped},
		{"all wraps", domain.RepeatAll, 1, "a", domain.StatusPlaying},
		{"one restarts", domain.RepeatOne, 1, "b", domain.StatusPlaying},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDeckFixture(t)
			f.ingest("a.mp3", "b.mp3")
			for f.deck.State().Repeat != tt.repeat {
				f.handle(RequestPlayback{Command: CommandCycleRepeat})
			}
			f.handle(RequestPlayTrack{Position: tt.start})
			plays := f.engine.Plays()

			f.engine.SimulateEnded()

			assert.Equal(t, tt.wantActive, f.activeName())
			assert.Equal(t, tt.wantStatus, f.deck.State().Status)
			if tt.wantStatus == domain.StatusPlaying {
				assert.Equal(t, plays+1, f.engine.Plays())
			}
		})
	}
}

func TestPlayerService_ProgressToEndAdvances(t *testing.T) {
	f := newDeckFixture(t)
	f.ingest("a.mp3", "b.mp3")
	f.handle(RequestPlayback{Command: CommandPlay})

	f.engine.SimulateDuration(3)
	f.engine.SimulateProgress(2)
	assert.Equal(t, "a", f.activeName())
	f.engine.SimulateProgress(2)
	assert.Equal(t, "b", f.activeName())

	p, _ := f.deck.Playlist(queue)
	assert.InDelta(t, 3, p.Tracks[0].DurationSeconds, 1e-9)
}

func TestPlayerService_StaleEndedIgnored(t *testing.T) {
	f := newDeckFixture(t)
	f.ingest("a.mp3", "b.mp3")
	f.handle(RequestPlayback{Command: CommandPlay})
	f.handle(RequestPlayback{Command: CommandStop})

	// nothing loaded, so nothing is reported
	f.engine.SimulateEnded()
	assert.Equal(t, "a", f.activeName())
}

func TestPlayerService_EngineErrorReported(t *testing.T) {
	f := newDeckFixture(t)
	tracks := f.ingest("a.mp3")
	f.handle(RequestPlayback{Command: CommandPlay})

	f.engine.SimulateError(errors.New("decode failed"))

	errs := f.eventsOf(domain.EventTrackError)
	require.Len(t, errs, 1)
	assert.Equal(t, tracks[0].ID, errs[0].(domain.TrackErrorEvent).TrackID)
}

func TestPlayerService_DurationRejectsInvalid(t *testing.T) {
	f := newDeckFixture(t)
	f.ingest("a.mp3")
	writes := f.docs.Writes()

	f.engine.SimulateDuration(math.NaN())
	f.engine.SimulateDuration(-1)
	f.engine.SimulateDuration(0)

	p, _ := f.deck.Playlist(queue)
	assert.Zero(t, p.Tracks[0].DurationSeconds)
	assert.Equal(t, writes, f.docs.Writes())
}

func TestPlayerService_VolumeAndMute(t *testing.T) {
	f := newDeckFixture(t)
	f.ingest("a.mp3")

	f.handle(RequestSetVolume{Volume: 1.7})
	assert.InDelta(t, 1, f.deck.State().Volume, 1e-9)
	f.handle(RequestSetVolume{Volume: -3})
	assert.InDelta(t, 0, f.deck.State().Volume, 1e-9)
	f.handle(RequestSetVolume{Volume: 0.4})
	assert.InDelta(t, 0.4, f.engine.Volume(), 1e-9)

	_, err := f.deck.Handle(f.ctx, RequestSetVolume{Volume: math.NaN()})
	assert.ErrorIs(t, err, domain.ErrInvalidVolume)

	f.handle(RequestPlayback{Command: CommandToggleMute})
	assert.True(t, f.deck.State().Muted)
	assert.Zero(t, f.engine.Volume())
	assert.InDelta(t, 0.4, f.deck.State().Volume, 1e-9)

	// volume changes while muted are remembered but not applied
	f.handle(RequestSetVolume{Volume: 0.6})
	assert.Zero(t, f.engine.Volume())

	f.handle(RequestPlayback{Command: CommandToggleMute})
	assert.InDelta(t, 0.6, f.engine.Volume(), 1e-9)
}

func TestPlayerService_RepeatAndShuffleToggles(t *testing.T) {
	f := newDeckFixture(t)

	want := []domain.RepeatMode{domain.RepeatAll, domain.RepeatOne, domain.RepeatNone}
	for _, mode := range want {
		f.handle(RequestPlayback{Command: CommandCycleRepeat})
		assert.Equal(t, mode, f.deck.State().Repeat)
	}

	f.handle(RequestPlayback{Command: CommandToggleShuffle})
	assert.True(t, f.deck.State().Shuffle)
	f.handle(RequestPlayback{Command: CommandToggleShuffle})
	assert.False(t, f.deck.State().Shuffle)
}

func TestPlayerService_Seek(t *testing.T) {
	f := newDeckFixture(t)
	f.ingest("a.mp3")
	f.engine.SimulateDuration(10)

	f.handle(RequestSeek{Seconds: 4})
	_, err := f.deck.Handle(f.ctx, RequestSeek{Seconds: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
	_, err = f.deck.Handle(f.ctx, RequestSeek{Seconds: 11})
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
}

func TestPlayerService_PlayTrackOutOfRange(t *testing.T) {
	f := newDeckFixture(t)
	f.ingest("a.mp3")
	_, err := f.deck.Handle(f.ctx, RequestPlayTrack{Position: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
	assert.Equal(t, 0, f.deck.State().ActiveIndex)
}

func TestPlayerService_SwitchUnknownPlaylist(t *testing.T) {
	f := newDeckFixture(t)
	_, err := f.deck.Handle(f.ctx, RequestSwitchPlaylist{Playlist: domain.NamedKey("playlist_nope")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, queue, f.deck.State().Viewed)
}
