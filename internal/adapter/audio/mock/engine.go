// Package mock provides a headless implementation of the PlaybackEngine interface.
// It is used by tests and by the CLI, where no audio output is wanted.
package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Engine simulates playback in memory without producing sound.
//
// Calls made by the deck never publish events, because the deck holds its lock
// while driving the engine. Events are only published by the Simulate* methods,
// which stand in for the media element reporting back asynchronously.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger  *slog.Logger
	handles ports.HandleTable
	bus     ports.EventBus

	mu       sync.RWMutex
	loaded   domain.PlaybackHandle
	status   domain.PlaybackStatus
	position float64
	duration float64
	volume   float64
	closed   bool

	// call history, for assertions
	loads []domain.PlaybackHandle
	plays int

	// Behavior configuration (for testing error scenarios)
	failLoad bool
	failPlay bool
}

// NewEngine creates a mock engine that opens handles from table and reports on bus.
func NewEngine(table ports.HandleTable, bus ports.EventBus, logger *slog.Logger) *Engine {
	return &Engine{
		handles: table,
		bus:     bus,
		logger:  logger.With(slog.String("component", "engine.mock")),
		volume:  1,
	}
}

// SetFailLoad configures the mock to fail loading media.
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to reject playback, like a browser refusing autoplay.
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Load prepares the media behind handle. Revoked or unknown handles are rejected.
func (m *Engine) Load(handle domain.PlaybackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrClosed
	}
	if m.failLoad {
		return domain.NewPlaybackError("load", handle, "mock load failure", nil)
	}
	if _, ok := m.handles.Open(handle); !ok {
		return domain.NewPlaybackError("load", handle, "handle is not open", domain.ErrInvalidHandle)
	}

	m.loaded = handle
	m.status = domain.StatusStopped
	m.position = 0
	m.duration = 0
	m.loads = append(m.loads, handle)
	m.logger.Debug("media loaded", slog.String("handle", string(handle)))
	return nil
}

// Play starts or resumes the loaded media.
func (m *Engine) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded == domain.InvalidPlaybackHandle {
		return domain.NewPlaybackError("play", "", "nothing loaded", domain.ErrNoActiveTrack)
	}
	if m.failPlay {
		return domain.NewPlaybackError("play", m.loaded, "mock playback failure", domain.ErrPlaybackFailed)
	}
	m.status = domain.StatusPlaying
	m.plays++
	return nil
}

// Pause pauses playback and keeps the position.
func (m *Engine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == domain.StatusPlaying {
		m.status = domain.StatusPaused
	}
	return nil
}

// Stop halts playback and unloads the media.
func (m *Engine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded = domain.InvalidPlaybackHandle
	m.status = domain.StatusStopped
	m.position = 0
	m.duration = 0
	return nil
}

// Seek moves the playback position.
func (m *Engine) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded == domain.InvalidPlaybackHandle {
		return domain.NewPlaybackError("seek", "", "nothing loaded", domain.ErrNoActiveTrack)
	}
	if seconds < 0 || (m.duration > 0 && seconds > m.duration) {
		return domain.ErrInvalidPosition
	}
	m.position = seconds
	return nil
}

// SetVolume sets the output level.
func (m *Engine) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	return nil
}

// Loaded returns the handle currently loaded.
func (m *Engine) Loaded() domain.PlaybackHandle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Close stops playback and rejects further loads.
func (m *Engine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.loaded = domain.InvalidPlaybackHandle
	m.status = domain.StatusStopped
	return nil
}

// Status returns the simulated playback status.
func (m *Engine) Status() domain.PlaybackStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Volume returns the last volume set.
func (m *Engine) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// Loads returns every handle passed to a successful Load, in order.
func (m *Engine) Loads() []domain.PlaybackHandle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.PlaybackHandle(nil), m.loads...)
}

// Plays returns how many times Play succeeded.
func (m *Engine) Plays() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.plays
}

// SimulateDuration reports that the loaded media is seconds long.
func (m *Engine) SimulateDuration(seconds float64) {
	m.mu.Lock()
	handle := m.loaded
	m.duration = seconds
	m.mu.Unlock()

	if handle != domain.InvalidPlaybackHandle {
		m.bus.Publish(domain.NewEngineDurationEvent(handle, seconds))
	}
}

// SimulateProgress advances the position by delta seconds while playing.
// Reaching the duration publishes an ended event.
func (m *Engine) SimulateProgress(delta float64) {
	m.mu.Lock()
	handle := m.loaded
	if handle == domain.InvalidPlaybackHandle || m.status != domain.StatusPlaying {
		m.mu.Unlock()
		return
	}
	m.position += delta
	ended := m.duration > 0 && m.position >= m.duration
	if ended {
		m.position = m.duration
		m.status = domain.StatusStopped
	}
	pos := m.position
	m.mu.Unlock()

	m.bus.Publish(domain.NewEnginePositionEvent(handle, pos))
	if ended {
		m.bus.Publish(domain.NewEngineEndedEvent(handle))
	}
}

// SimulateEnded reports that the loaded media finished.
func (m *Engine) SimulateEnded() {
	m.mu.Lock()
	handle := m.loaded
	m.status = domain.StatusStopped
	m.mu.Unlock()

	if handle != domain.InvalidPlaybackHandle {
		m.bus.Publish(domain.NewEngineEndedEvent(handle))
	}
}

// SimulateError reports a media error on the loaded handle.
func (m *Engine) SimulateError(err error) {
	m.mu.Lock()
	handle := m.loaded
	m.status = domain.StatusStopped
	m.mu.Unlock()

	m.bus.Publish(domain.NewEngineErrorEvent(handle, err))
}

var _ ports.PlaybackEngine = (*Engine)(nil)
