// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the tunedeck track library.
package domain

import (
	"math"
	"strings"
)

// QueueID is the wire identifier of the default playlist.
const QueueID = "current"

// QueueName is the display name of the default playlist.
const QueueName = "Current Queue"

// Track is one audio item held by a playlist.
type Track struct {
	// ID is the opaque track identifier; it doubles as the blob key.
	ID string

	// Name is the original filename without its extension
	Name string

	// DurationSeconds is zero until the playback engine reports it
	DurationSeconds float64

	// Format is the sniffed container type (MP3, FLAC, ...), informational only
	Format string

	// Handle is the ephemeral playback reference. It is never persisted.
	Handle PlaybackHandle
}

// HasHandle reports whether the track currently holds a live playback handle.
func (t *Track) HasHandle() bool {
	return t != nil && t.Handle != InvalidPlaybackHandle
}

// Record returns the persisted form of the track.
func (t *Track) Record() TrackRecord {
	return TrackRecord{ID: t.ID, Name: t.Name, DurationSeconds: t.DurationSeconds}
}

// SetDuration records a reported duration. Non-positive or non-finite values are ignored.
func (t *Track) SetDuration(seconds float64) bool {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return false
	}
	if t.DurationSeconds == seconds {
		return false
	}
	t.DurationSeconds = seconds
	return true
}

// TrackFromRecord rehydrates a track with no playback handle.
func TrackFromRecord(r TrackRecord) *Track {
	return &Track{ID: r.ID, Name: r.Name, DurationSeconds: r.DurationSeconds}
}

// PlaybackHandle is a short-lived reference the playback engine can open.
// Handles must be released explicitly when the track leaves the library or the process ends.
type PlaybackHandle string

const (
	// InvalidPlaybackHandle represents an unresolved track
	InvalidPlaybackHandle PlaybackHandle = ""
)

// PlaylistKey identifies either the default queue or a named playlist.
// The zero value is the queue.
type PlaylistKey struct {
	id string
}

// QueueKey returns the key of the default playlist.
func QueueKey() PlaylistKey {
	return PlaylistKey{}
}

// NamedKey returns the key of a user-created playlist.
func NamedKey(id string) PlaylistKey {
	if id == QueueID {
		return PlaylistKey{}
	}
	return PlaylistKey{id: id}
}

// ParseKey maps a wire identifier back to a key. Empty and "current" both mean the queue.
func ParseKey(id string) PlaylistKey {
	return NamedKey(strings.TrimSpace(id))
}

// IsQueue reports whether the key points at the default playlist.
func (k PlaylistKey) IsQueue() bool {
	return k.id == ""
}

// ID returns the wire identifier.
func (k PlaylistKey) ID() string {
	if k.id == "" {
		return QueueID
	}
	return k.id
}

// String implements fmt.Stringer.
func (k PlaylistKey) String() string {
	return k.ID()
}

// Playlist is an ordered sequence of tracks.
type Playlist struct {
	// Key identifies the playlist
	Key PlaylistKey

	// Name is the display name; the queue always carries QueueName
	Name string

	// Cover is an optional embedded image reference (for example a data URL)
	Cover string

	// Tracks is the ordered content. Duplicates by ID are not prevented.
	Tracks []*Track
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Tracks)
}

// IndexOf returns the position of the first track with the given ID, or -1.
func (p *Playlist) IndexOf(trackID string) int {
	if p == nil {
		return -1
	}
	for i, t := range p.Tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

// Snapshot returns the persisted form of the playlist.
func (p *Playlist) Snapshot() PlaylistSnapshot {
	s := PlaylistSnapshot{
		ID:     p.Key.ID(),
		Name:   p.Name,
		Cover:  p.Cover,
		Tracks: make([]TrackRecord, 0, len(p.Tracks)),
	}
	for _, t := range p.Tracks {
		s.Tracks = append(s.Tracks, t.Record())
	}
	return s
}

// PlaybackStatus represents the current playback state.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// RepeatMode controls what happens when a track finishes.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatAll
	RepeatOne
)

// Next cycles none -> all -> one -> none.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "none"
	}
}

// SessionState is a read-only view of the player and view state.
type SessionState struct {
	// Viewed is the playlist currently shown and driving playback
	Viewed PlaylistKey

	// ActiveIndex is the position of the active track in Viewed, -1 if none
	ActiveIndex int

	// ActiveTrack is a copy of the active track (nil if none)
	ActiveTrack *Track

	Status  PlaybackStatus
	Volume  float64
	Muted   bool
	Repeat  RepeatMode
	Shuffle bool

	// Selected holds the selected positions in ascending order
	Selected []int
}
