package domain

import (
	"encoding/json"
	"fmt"
)

// LibraryDocumentVersion is the current metadata document layout.
const LibraryDocumentVersion = 1

// DefaultVolume is used when no volume has been persisted.
const DefaultVolume = 0.7

// TrackRecord is the persisted form of a Track. It never carries a playback handle.
type TrackRecord struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DurationSeconds float64 `json:"duration"`
}

// PlaylistSnapshot is the persisted form of a named playlist, also used as the
// payload of playlist-delete log entries.
type PlaylistSnapshot struct {
	ID     string        `json:"id,omitempty"`
	Name   string        `json:"name"`
	Cover  string        `json:"cover,omitempty"`
	Tracks []TrackRecord `json:"tracks"`
}

// LibraryDocument is the metadata document written after every mutation.
//
// Named playlists are encoded as an ordered array of [id, {name, cover, tracks}] pairs
// so that creation order survives a round trip.
type LibraryDocument struct {
	Version           int
	Queue             []TrackRecord
	Playlists         []PlaylistSnapshot
	CurrentPlaylistID string

	// Volume is nil when the document carries no volume
	Volume *float64
}

type libraryDocumentJSON struct {
	Version           int                 `json:"version,omitempty"`
	Playlist          []TrackRecord       `json:"playlist"`
	CustomPlaylists   [][]json.RawMessage `json:"customPlaylists"`
	CurrentPlaylistID string              `json:"currentPlaylistId,omitempty"`
	Volume            *float64            `json:"volume,omitempty"`
}

type playlistBody struct {
	Name   string        `json:"name"`
	Cover  string        `json:"cover,omitempty"`
	Tracks []TrackRecord `json:"tracks"`
}

// MarshalJSON implements json.Marshaler.
func (d LibraryDocument) MarshalJSON() ([]byte, error) {
	out := libraryDocumentJSON{
		Version:           d.Version,
		Playlist:          d.Queue,
		CustomPlaylists:   make([][]json.RawMessage, 0, len(d.Playlists)),
		CurrentPlaylistID: d.CurrentPlaylistID,
		Volume:            d.Volume,
	}
	if out.Version == 0 {
		out.Version = LibraryDocumentVersion
	}
	if out.Playlist == nil {
		out.Playlist = []TrackRecord{}
	}
	for _, p := range d.Playlists {
		id, err := json.Marshal(p.ID)
		if err != nil {
			return nil, err
		}
		tracks := p.Tracks
		if tracks == nil {
			tracks = []TrackRecord{}
		}
		body, err := json.Marshal(playlistBody{Name: p.Name, Cover: p.Cover, Tracks: tracks})
		if err != nil {
			return nil, err
		}
		out.CustomPlaylists = append(out.CustomPlaylists, []json.RawMessage{id, body})
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. A missing version is read as version 1.
func (d *LibraryDocument) UnmarshalJSON(data []byte) error {
	var in libraryDocumentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Version == 0 {
		in.Version = 1
	}
	if in.Version > LibraryDocumentVersion {
		return NewValidationError("version", in.Version, "unsupported library document version")
	}

	doc := LibraryDocument{
		Version:           in.Version,
		Queue:             in.Playlist,
		CurrentPlaylistID: in.CurrentPlaylistID,
		Volume:            in.Volume,
	}
	for i, pair := range in.CustomPlaylists {
		if len(pair) != 2 {
			return NewValidationError("customPlaylists", i, fmt.Sprintf("expected [id, playlist] pair, got %d elements", len(pair)))
		}
		var id string
		if err := json.Unmarshal(pair[0], &id); err != nil {
			return fmt.Errorf("customPlaylists[%d] id: %w", i, err)
		}
		var body playlistBody
		if err := json.Unmarshal(pair[1], &body); err != nil {
			return fmt.Errorf("customPlaylists[%d] body: %w", i, err)
		}
		doc.Playlists = append(doc.Playlists, PlaylistSnapshot{ID: id, Name: body.Name, Cover: body.Cover, Tracks: body.Tracks})
	}
	*d = doc
	return nil
}

// ActionLogDocument is the persisted form of the action log.
type ActionLogDocument struct {
	Version int              `json:"version"`
	Entries []ActionLogEntry `json:"entries"`
}
