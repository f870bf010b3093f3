// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// PlaybackEngine is the external media player the deck drives.
//
// The engine only ever sees playback handles. It reports what it learns about the
// media (duration, progress, end, errors) by publishing Engine* events on the event
// bus instead of calling back into the deck.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type PlaybackEngine interface {
	// Load prepares the media behind handle. Any previously loaded media is released.
	Load(handle domain.PlaybackHandle) error

	// Play starts or resumes playback of the loaded media.
	Play(ctx context.Context) error

	// Pause pauses playback, keeping the position.
	Pause() error

	// Stop halts playback and unloads the media.
	Stop() error

	// Seek moves to the given offset in seconds.
	Seek(seconds float64) error

	// SetVolume sets the output level in [0, 1].
	SetVolume(volume float64) error

	// Loaded returns the handle currently loaded, or InvalidPlaybackHandle.
	Loaded() domain.PlaybackHandle

	// Close releases engine resources.
	Close() error
}
