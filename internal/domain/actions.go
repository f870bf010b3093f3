package domain

import "time"

// ActionType tags the kind of mutation recorded in the action log.
type ActionType string

const (
	ActionPlaylistCreate ActionType = "playlist-create"
	ActionPlaylistDelete ActionType = "playlist-delete"
	ActionTrackAdd       ActionType = "track-add"
	ActionTrackRemove    ActionType = "track-remove"
	ActionTrackMove      ActionType = "track-move"
)

// Valid reports whether t is one of the known action types.
func (t ActionType) Valid() bool {
	switch t {
	case ActionPlaylistCreate, ActionPlaylistDelete, ActionTrackAdd, ActionTrackRemove, ActionTrackMove:
		return true
	}
	return false
}

// ActionTrack describes one track touched by an action, with its position before the action.
type ActionTrack struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DurationSeconds float64 `json:"duration"`

	// Position is the index the track occupied in the playlist it was taken from.
	// For track-add it is the index the track was inserted at.
	Position int `json:"position"`
}

// Record converts the action track back into a persisted track record.
func (a ActionTrack) Record() TrackRecord {
	return TrackRecord{ID: a.ID, Name: a.Name, DurationSeconds: a.DurationSeconds}
}

// ActionPayload carries everything an undo needs.
type ActionPayload struct {
	// PlaylistID is the playlist acted upon (create, delete, add, remove)
	PlaylistID string `json:"playlistId,omitempty"`

	// SourceID and TargetID describe a move
	SourceID string `json:"sourceId,omitempty"`
	TargetID string `json:"targetId,omitempty"`

	Tracks []ActionTrack `json:"tracks,omitempty"`

	// Playlist is the full snapshot taken before a delete
	Playlist *PlaylistSnapshot `json:"playlist,omitempty"`
}

// TrackIDs returns the IDs of the tracks in the payload, in order.
func (p ActionPayload) TrackIDs() []string {
	ids := make([]string, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		ids = append(ids, t.ID)
	}
	if p.Playlist != nil {
		for _, t := range p.Playlist.Tracks {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// ActionLogEntry is one recorded, possibly reversible, mutation.
type ActionLogEntry struct {
	ID        string        `json:"id"`
	Type      ActionType    `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Payload   ActionPayload `json:"payload"`
	Undoable  bool          `json:"undoable"`
}
