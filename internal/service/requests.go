package service

import (
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// Request is one discrete user gesture handled by the Deck.
type Request interface {
	requestName() string
}

// IngestFile is a single file handed over for ingestion.
type IngestFile struct {
	Name     string
	Data     []byte
	MimeType string
}

// RequestIngestFiles stores files and appends them to the queue, one after another.
type RequestIngestFiles struct {
	Files []IngestFile
}

// RequestCreatePlaylist creates an empty named playlist.
type RequestCreatePlaylist struct {
	Name  string
	Cover string
}

// RequestDeletePlaylist deletes a named playlist; undoable.
type RequestDeletePlaylist struct {
	Playlist domain.PlaylistKey
}

// RequestRemoveTrack takes one track out of a playlist; undoable.
type RequestRemoveTrack struct {
	Playlist domain.PlaylistKey
	Position int
}

// RequestClearPlaylist empties a playlist and deletes its blobs. Not undoable.
type RequestClearPlaylist struct {
	Playlist domain.PlaylistKey
}

// RequestMoveTrack moves one track to another playlist.
type RequestMoveTrack struct {
	Source   domain.PlaylistKey
	Position int
	Target   domain.PlaylistKey
}

// RequestMoveTracks moves several tracks to another playlist.
type RequestMoveTracks struct {
	Source    domain.PlaylistKey
	Positions []int
	Target    domain.PlaylistKey
}

// RequestMoveSelection moves the selected tracks of the viewed playlist.
type RequestMoveSelection struct {
	Target domain.PlaylistKey
}

// RequestDrop moves a track described by a serialized drag payload
// ({"index": n, "source": "id"}) into Target.
type RequestDrop struct {
	Payload []byte
	Target  domain.PlaylistKey
}

// RequestUndo reverses an action log entry; the latest undoable one when EntryID is empty.
type RequestUndo struct {
	EntryID string
}

// RequestClearHistory drops the whole action log.
type RequestClearHistory struct{}

// RequestSwitchPlaylist changes the viewed playlist.
type RequestSwitchPlaylist struct {
	Playlist domain.PlaylistKey
}

// RequestSelect adds positions of the viewed playlist to the selection, or
// toggles them when Toggle is set.
type RequestSelect struct {
	Positions []int
	Toggle    bool
}

// RequestDeselect empties the selection.
type RequestDeselect struct{}

// RequestSetVolume sets the output volume (clamped to [0, 1]).
type RequestSetVolume struct {
	Volume float64
}

// RequestPlayTrack loads and plays the track at Position of the viewed playlist.
type RequestPlayTrack struct {
	Position int
}

// PlaybackCommand names a transport control without arguments.
type PlaybackCommand int

const (
	CommandPlay PlaybackCommand = iota
	CommandPause
	CommandTogglePlay
	CommandStop
	CommandNext
	CommandPrevious
	CommandToggleMute
	CommandCycleRepeat
	CommandToggleShuffle
)

// RequestPlayback applies a transport control.
type RequestPlayback struct {
	Command PlaybackCommand
}

// RequestSeek moves the playback position.
type RequestSeek struct {
	Seconds float64
}

func (RequestIngestFiles) requestName() string { return "ingest-files" }
func (RequestCreatePlaylist) requestName() string { return "create-playlist" }
func (RequestDeletePlaylist) requestName() string { return "delete-playlist" }
func (RequestRemoveTrack) requestName() string { return "remove-track" }
func (RequestClearPlaylist) requestName() string { return "clear-playlist" }
func (RequestMoveTrack) requestName() string { return "move-track" }
func (RequestMoveTracks) requestName() string { return "move-tracks" }
func (RequestMoveSelection) requestName() string { return "move-selection" }
func (RequestDrop) requestName() string { return "drop" }
func (RequestUndo) requestName() string { return "undo" }
func (RequestClearHistory) requestName() string { return "clear-history" }
func (RequestSwitchPlaylist) requestName() string { return "switch-playlist" }
func (RequestSelect) requestName() string { return "select" }
func (RequestDeselect) requestName() string { return "deselect" }
func (RequestSetVolume) requestName() string { return "set-volume" }
func (RequestPlayTrack) requestName() string { return "play-track" }
func (RequestPlayback) requestName() string { return "playback" }
func (RequestSeek) requestName() string { return "seek" }

// Result reports what a request changed. Only the fields relevant to the
// request are set.
type Result struct {
	// Playlist is the playlist created, deleted or restored
	Playlist domain.PlaylistKey

	// Tracks are the ingested tracks
	Tracks []domain.Track

	// Entry is the action log entry recorded or undone
	Entry *domain.ActionLogEntry

	// Moved counts tracks moved between playlists
	Moved int

	// Failures holds per-file ingestion errors; the other files are still ingested
	Failures []error
}
