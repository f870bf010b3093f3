package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryDocument_PlaylistsEncodedAsPairs(t *testing.T) {
	vol := 0.4
	doc := LibraryDocument{
		Queue: []TrackRecord{{ID: "track_1", Name: "intro", DurationSeconds: 12.5}},
		Playlists: []PlaylistSnapshot{
			{ID: "playlist_b", Name: "Second", Tracks: []TrackRecord{{ID: "track_2", Name: "b"}}},
			{ID: "playlist_a", Name: "First", Cover: "data:image/png;base64,AA=="},
		},
		CurrentPlaylistID: "playlist_b",
		Volume:            &vol,
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `1`, string(raw["version"]))
	assert.JSONEq(t, `[
		["playlist_b", {"name":"Second","tracks":[{"id":"track_2","name":"b","duration":0}]}],
		["playlist_a", {"name":"First","cover":"data:image/png;base64,AA==","tracks":[]}]
	]`, string(raw["customPlaylists"]))

	var back LibraryDocument
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, doc.Queue, back.Queue)
	require.Len(t, back.Playlists, 2)
	assert.Equal(t, "playlist_b", back.Playlists[0].ID, "creation order must survive")
	assert.Equal(t, "playlist_a", back.Playlists[1].ID)
	assert.Equal(t, "data:image/png;base64,AA==", back.Playlists[1].Cover)
	require.NotNil(t, back.Volume)
	assert.InDelta(t, 0.4, *back.Volume, 1e-9)
}

func TestLibraryDocument_UnversionedDocumentIsV1(t *testing.T) {
	legacy := `{"playlist":[{"id":"track_9","name":"old","duration":3}],
		"customPlaylists":[["playlist_1",{"name":"Mix","cover":null,"tracks":[]}]],
		"currentPlaylistId":"current"}`

	var doc LibraryDocument
	require.NoError(t, json.Unmarshal([]byte(legacy), &doc))

	assert.Equal(t, 1, doc.Version)
	assert.Nil(t, doc.Volume)
	require.Len(t, doc.Playlists, 1)
	assert.Equal(t, "Mix", doc.Playlists[0].Name)
	assert.Equal(t, "current", doc.CurrentPlaylistID)
}

func TestLibraryDocument_RejectsMalformedPairs(t *testing.T) {
	var doc LibraryDocument
	err := json.Unmarshal([]byte(`{"customPlaylists":[["only-id"]]}`), &doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	err = json.Unmarshal([]byte(`{"version":99}`), &doc)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestTrackRecord_NeverCarriesHandle(t *testing.T) {
	track := &Track{ID: "track_1", Name: "a", Handle: "blob:abc"}
	data, err := json.Marshal(track.Record())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "blob:abc")
}
