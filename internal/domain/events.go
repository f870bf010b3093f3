// Package domain defines events for the event-driven architecture.
// Events replace direct UI callbacks and enable loose coupling between components.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Library events
	EventTrackIngested     EventType = "track.ingested"
	EventPlaylistUpdated   EventType = "playlist.updated"
	EventPlaylistCreated   EventType = "playlist.created"
	EventPlaylistDeleted   EventType = "playlist.deleted"
	EventLibraryReconciled EventType = "library.reconciled"
	EventStorageFailed     EventType = "storage.failed"

	// Action log events
	EventActionRecorded EventType = "action.recorded"
	EventActionUndone   EventType = "action.undone"

	// View and selection events
	EventActiveChanged    EventType = "active.changed"
	EventSelectionChanged EventType = "selection.changed"

	// Playback events
	EventTrackLoaded  EventType = "track.loaded"
	EventTrackStarted EventType = "track.started"
	EventTrackPaused  EventType = "track.paused"
	EventTrackStopped EventType = "track.stopped"
	EventTrackError   EventType = "track.error"

	// Playback mode events
	EventVolumeChanged  EventType = "volume.changed"
	EventMuteToggled    EventType = "mute.toggled"
	EventRepeatChanged  EventType = "repeat.changed"
	EventShuffleToggled EventType = "shuffle.toggled"

	// Engine events, emitted by a PlaybackEngine implementation
	EventEngineDuration EventType = "engine.duration"
	EventEnginePosition EventType = "engine.position"
	EventEngineEnded    EventType = "engine.ended"
	EventEngineError    EventType = "engine.error"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackIngestedEvent is published after a file has been stored and appended to the queue.
type TrackIngestedEvent struct {
	baseEvent
	Track    Track
	Playlist PlaylistKey
	Index    int
}

// Type returns the event type.
func (e TrackIngestedEvent) Type() EventType {
	return EventTrackIngested
}

// NewTrackIngestedEvent creates a new TrackIngestedEvent.
func NewTrackIngestedEvent(track Track, playlist PlaylistKey, index int) TrackIngestedEvent {
	return TrackIngestedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Playlist:  playlist,
		Index:     index,
	}
}

// PlaylistUpdatedEvent is published when the content of a playlist changes.
type PlaylistUpdatedEvent struct {
	baseEvent
	Playlist PlaylistKey
	Tracks   []Track
}

// Type returns the event type.
func (e PlaylistUpdatedEvent) Type() EventType {
	return EventPlaylistUpdated
}

// NewPlaylistUpdatedEvent creates a new PlaylistUpdatedEvent.
func NewPlaylistUpdatedEvent(playlist PlaylistKey, tracks []Track) PlaylistUpdatedEvent {
	return PlaylistUpdatedEvent{
		baseEvent: newBaseEvent(),
		Playlist:  playlist,
		Tracks:    tracks,
	}
}

// PlaylistCreatedEvent is published when a named playlist is created or restored.
type PlaylistCreatedEvent struct {
	baseEvent
	Playlist PlaylistKey
	Name     string
}

// Type returns the event type.
func (e PlaylistCreatedEvent) Type() EventType {
	return EventPlaylistCreated
}

// NewPlaylistCreatedEvent creates a new PlaylistCreatedEvent.
func NewPlaylistCreatedEvent(playlist PlaylistKey, name string) PlaylistCreatedEvent {
	return PlaylistCreatedEvent{baseEvent: newBaseEvent(), Playlist: playlist, Name: name}
}

// PlaylistDeletedEvent is published when a named playlist is removed.
type PlaylistDeletedEvent struct {
	baseEvent
	Playlist PlaylistKey
	Name     string
}

// Type returns the event type.
func (e PlaylistDeletedEvent) Type() EventType {
	return EventPlaylistDeleted
}

// NewPlaylistDeletedEvent creates a new PlaylistDeletedEvent.
func NewPlaylistDeletedEvent(playlist PlaylistKey, name string) PlaylistDeletedEvent {
	return PlaylistDeletedEvent{baseEvent: newBaseEvent(), Playlist: playlist, Name: name}
}

// LibraryReconciledEvent is published once startup handle resolution has finished.
type LibraryReconciledEvent struct {
	baseEvent
	Resolved int
	Missing  int
	Failed   int
}

// Type returns the event type.
func (e LibraryReconciledEvent) Type() EventType {
	return EventLibraryReconciled
}

// NewLibraryReconciledEvent creates a new LibraryReconciledEvent.
func NewLibraryReconciledEvent(resolved, missing, failed int) LibraryReconciledEvent {
	return LibraryReconciledEvent{baseEvent: newBaseEvent(), Resolved: resolved, Missing: missing, Failed: failed}
}

// StorageFailedEvent surfaces a durable write failure to the user, for example a quota error.
type StorageFailedEvent struct {
	baseEvent
	Op    string
	Error error
}

// Type returns the event type.
func (e StorageFailedEvent) Type() EventType {
	return EventStorageFailed
}

// NewStorageFailedEvent creates a new StorageFailedEvent.
func NewStorageFailedEvent(op string, err error) StorageFailedEvent {
	return StorageFailedEvent{baseEvent: newBaseEvent(), Op: op, Error: err}
}

// ActionRecordedEvent is published when a mutation is appended to the action log.
type ActionRecordedEvent struct {
	baseEvent
	Entry ActionLogEntry
}

// Type returns the event type.
func (e ActionRecordedEvent) Type() EventType {
	return EventActionRecorded
}

// NewActionRecordedEvent creates a new ActionRecordedEvent.
func NewActionRecordedEvent(entry ActionLogEntry) ActionRecordedEvent {
	return ActionRecordedEvent{baseEvent: newBaseEvent(), Entry: entry}
}

// ActionUndoneEvent is published after an entry has been reversed.
type ActionUndoneEvent struct {
	baseEvent
	Entry ActionLogEntry
}

// Type returns the event type.
func (e ActionUndoneEvent) Type() EventType {
	return EventActionUndone
}

// NewActionUndoneEvent creates a new ActionUndoneEvent.
func NewActionUndoneEvent(entry ActionLogEntry) ActionUndoneEvent {
	return ActionUndoneEvent{baseEvent: newBaseEvent(), Entry: entry}
}

// ActiveChangedEvent is published when the viewed playlist or the active position changes.
type ActiveChangedEvent struct {
	baseEvent
	Playlist PlaylistKey
	Index    int // -1 when nothing is active
}

// Type returns the event type.
func (e ActiveChangedEvent) Type() EventType {
	return EventActiveChanged
}

// NewActiveChangedEvent creates a new ActiveChangedEvent.
func NewActiveChangedEvent(playlist PlaylistKey, index int) ActiveChangedEvent {
	return ActiveChangedEvent{baseEvent: newBaseEvent(), Playlist: playlist, Index: index}
}

// SelectionChangedEvent is published when the multi-selection changes.
type SelectionChangedEvent struct {
	baseEvent
	Positions []int
}

// Type returns the event type.
func (e SelectionChangedEvent) Type() EventType {
	return EventSelectionChanged
}

// NewSelectionChangedEvent creates a new SelectionChangedEvent.
func NewSelectionChangedEvent(positions []int) SelectionChangedEvent {
	return SelectionChangedEvent{baseEvent: newBaseEvent(), Positions: positions}
}

// TrackLoadedEvent is published when a track is handed to the playback engine.
type TrackLoadedEvent struct {
	baseEvent
	Track  Track
	Handle PlaybackHandle
	Index  int
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track, handle PlaybackHandle, index int) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Handle:    handle,
		Index:     index,
	}
}

// TrackStartedEvent is published when playback starts.
type TrackStartedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track) TrackStartedEvent {
	return TrackStartedEvent{baseEvent: newBaseEvent(), Track: track}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track) TrackPausedEvent {
	return TrackPausedEvent{baseEvent: newBaseEvent(), Track: track}
}

// TrackStoppedEvent is published when playback stops, including when the
// active track leaves an emptied playlist.
type TrackStoppedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e TrackStoppedEvent) Type() EventType {
	return EventTrackStopped
}

// NewTrackStoppedEvent creates a new TrackStoppedEvent.
func NewTrackStoppedEvent() TrackStoppedEvent {
	return TrackStoppedEvent{baseEvent: newBaseEvent()}
}

// TrackErrorEvent is published when a track cannot be loaded or played.
type TrackErrorEvent struct {
	baseEvent
	TrackID string
	Error   error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(trackID string, err error) TrackErrorEvent {
	return TrackErrorEvent{baseEvent: newBaseEvent(), TrackID: trackID, Error: err}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{baseEvent: newBaseEvent(), Volume: volume}
}

// MuteToggledEvent is published when mute is toggled.
type MuteToggledEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteToggledEvent) Type() EventType {
	return EventMuteToggled
}

// NewMuteToggledEvent creates a new MuteToggledEvent.
func NewMuteToggledEvent(muted bool) MuteToggledEvent {
	return MuteToggledEvent{baseEvent: newBaseEvent(), Muted: muted}
}

// RepeatChangedEvent is published when the repeat mode cycles.
type RepeatChangedEvent struct {
	baseEvent
	Mode RepeatMode
}

// Type returns the event type.
func (e RepeatChangedEvent) Type() EventType {
	return EventRepeatChanged
}

// NewRepeatChangedEvent creates a new RepeatChangedEvent.
func NewRepeatChangedEvent(mode RepeatMode) RepeatChangedEvent {
	return RepeatChangedEvent{baseEvent: newBaseEvent(), Mode: mode}
}

// ShuffleToggledEvent is published when shuffle is toggled.
type ShuffleToggledEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e ShuffleToggledEvent) Type() EventType {
	return EventShuffleToggled
}

// NewShuffleToggledEvent creates a new ShuffleToggledEvent.
func NewShuffleToggledEvent(enabled bool) ShuffleToggledEvent {
	return ShuffleToggledEvent{baseEvent: newBaseEvent(), Enabled: enabled}
}

// EngineDurationEvent reports the duration of the loaded media.
type EngineDurationEvent struct {
	baseEvent
	Handle  PlaybackHandle
	Seconds float64
}

// Type returns the event type.
func (e EngineDurationEvent) Type() EventType {
	return EventEngineDuration
}

// NewEngineDurationEvent creates a new EngineDurationEvent.
func NewEngineDurationEvent(handle PlaybackHandle, seconds float64) EngineDurationEvent {
	return EngineDurationEvent{baseEvent: newBaseEvent(), Handle: handle, Seconds: seconds}
}

// EnginePositionEvent reports playback progress.
type EnginePositionEvent struct {
	baseEvent
	Handle  PlaybackHandle
	Seconds float64
}

// Type returns the event type.
func (e EnginePositionEvent) Type() EventType {
	return EventEnginePosition
}

// NewEnginePositionEvent creates a new EnginePositionEvent.
func NewEnginePositionEvent(handle PlaybackHandle, seconds float64) EnginePositionEvent {
	return EnginePositionEvent{baseEvent: newBaseEvent(), Handle: handle, Seconds: seconds}
}

// EngineEndedEvent reports that the loaded media played to its end.
type EngineEndedEvent struct {
	baseEvent
	Handle PlaybackHandle
}

// Type returns the event type.
func (e EngineEndedEvent) Type() EventType {
	return EventEngineEnded
}

// NewEngineEndedEvent creates a new EngineEndedEvent.
func NewEngineEndedEvent(handle PlaybackHandle) EngineEndedEvent {
	return EngineEndedEvent{baseEvent: newBaseEvent(), Handle: handle}
}

// EngineErrorEvent reports a media error raised by the engine.
type EngineErrorEvent struct {
	baseEvent
	Handle PlaybackHandle
	Error  error
}

// Type returns the event type.
func (e EngineErrorEvent) Type() EventType {
	return EventEngineError
}

// NewEngineErrorEvent creates a new EngineErrorEvent.
func NewEngineErrorEvent(handle PlaybackHandle, err error) EngineErrorEvent {
	return EngineErrorEvent{baseEvent: newBaseEvent(), Handle: handle, Error: err}
}
