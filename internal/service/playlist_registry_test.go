package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmemory "github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore/memory"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/handles"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

type registryFixture struct {
	store     *blobmemory.Store
	handles   *handles.Table
	tracks    *TrackRegistry
	playlists *PlaylistRegistry
	transfer  *TransferEngine
}

func newRegistryFixture() *registryFixture {
	log := logger.NewTestLogger()
	f := &registryFixture{store: blobmemory.NewStore(), handles: handles.NewTable()}
	f.tracks = NewTrackRegistry(NewBlobService(f.store, f.handles, log), nil, log)
	f.playlists = NewPlaylistRegistry(f.tracks, log)
	f.transfer = NewTransferEngine(f.playlists, log)
	return f
}

func (f *registryFixture) add(t *testing.T, key domain.PlaylistKey, names ...string) {
	t.Helper()
	for _, n := range names {
		track, err := f.tracks.Ingest(context.Background(), []byte(n), n+".mp3")
		require.NoError(t, err)
		_, ok := f.playlists.Append(key, track)
		require.True(t, ok)
	}
}

func trackNames(tracks []*domain.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Name
	}
	return out
}

func TestPlaylistRegistry_UnknownPlaylistIsEmpty(t *testing.T) {
	f := newRegistryFixture()
	assert.Empty(t, f.playlists.Tracks(domain.NamedKey("playlist_nope")))
	assert.NotNil(t, f.playlists.Tracks(domain.NamedKey("playlist_nope")))
	assert.Zero(t, f.playlists.Len(domain.NamedKey("playlist_nope")))
	assert.True(t, f.playlists.Exists(domain.QueueKey()))
}

func TestPlaylistRegistry_CreateKeepsOrder(t *testing.T) {
	f := newRegistryFixture()
	a, err := f.playlists.CreatePlaylist("  Alpha ", "")
	require.NoError(t, err)
	b, err := f.playlists.CreatePlaylist("Beta", "beta.png")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	all := f.playlists.Playlists()
	require.Len(t, all, 3)
	assert.True(t, all[0].Key.IsQueue())
	assert.Equal(t, "Alpha", all[1].Name)
	assert.Equal(t, "beta.png", all[2].Cover)

	_, err = f.playlists.CreatePlaylist("\t", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPlaylistRegistry_DeletePlaylist(t *testing.T) {
	f := newRegistryFixture()
	key, _ := f.playlists.CreatePlaylist("Mix", "")
	f.add(t, key, "a", "b")
	require.Equal(t, 2, f.store.Len())

	snapshot, err := f.playlists.DeletePlaylist(context.Background(), key)
	require.NoError(t, err)
	assert.Len(t, snapshot.Tracks, 2)
	assert.False(t, f.playlists.Exists(key))
	assert.Zero(t, f.store.Len())
	assert.Zero(t, f.handles.Len())

	_, err = f.playlists.DeletePlaylist(context.Background(), key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.playlists.DeletePlaylist(context.Background(), domain.QueueKey())
	assert.ErrorIs(t, err, domain.ErrInvariant)
}

func TestPlaylistRegistry_DetachKeepsBlobs(t *testing.T) {
	f := newRegistryFixture()
	key, _ := f.playlists.CreatePlaylist("Mix", "c.png")
	f.add(t, key, "a")

	snapshot, err := f.playlists.Detach(key)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Len())
	assert.Zero(t, f.handles.Len())

	restored, ok := f.playlists.Restore(snapshot)
	require.True(t, ok)
	assert.Equal(t, key, restored)
	assert.Equal(t, []string{"a"}, trackNames(f.playlists.Tracks(key)))

	_, ok = f.playlists.Restore(snapshot)
	assert.False(t, ok)
}

func TestPlaylistRegistry_RemoveAtIsDescendingSafe(t *testing.T) {
	f := newRegistryFixture()
	q := domain.QueueKey()
	f.add(t, q, "t0", "t1", "t2", "t3", "t4")

	removed, positions := f.playlists.RemoveAt(q, 4, 0, 2, 2, 9, -1)
	assert.Equal(t, []string{"t0", "t2", "t4"}, trackNames(removed))
	assert.Equal(t, []int{0, 2, 4}, positions)
	assert.Equal(t, []string{"t1", "t3"}, trackNames(f.playlists.Tracks(q)))
}

func TestPlaylistRegistry_InsertAtClamps(t *testing.T) {
	f := newRegistryFixture()
	q := domain.QueueKey()
	f.add(t, q, "a")
	extra := &domain.Track{ID: "track_x", Name: "x"}

	at, ok := f.playlists.InsertAt(q, 10, extra)
	require.True(t, ok)
	assert.Equal(t, 1, at)

	at, _ = f.playlists.InsertAt(q, -4, &domain.Track{ID: "track_y", Name: "y"})
	assert.Zero(t, at)
	assert.Equal(t, []string{"y", "a", "x"}, trackNames(f.playlists.Tracks(q)))

	_, ok = f.playlists.InsertAt(domain.NamedKey("playlist_nope"), 0, extra)
	assert.False(t, ok)
}

func TestPlaylistRegistry_ClearReleasesEverything(t *testing.T) {
	f := newRegistryFixture()
	q := domain.QueueKey()
	f.add(t, q, "a", "b")

	removed, err := f.playlists.Clear(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Zero(t, f.playlists.Len(q))
	assert.Zero(t, f.store.Len())
	assert.Zero(t, f.handles.Len())
}

func TestPlaylistRegistry_DocumentLoadRoundTrip(t *testing.T) {
	f := newRegistryFixture()
	q := domain.QueueKey()
	f.add(t, q, "a", "b")
	mix, _ := f.playlists.CreatePlaylist("Mix", "m.png")
	f.add(t, mix, "c")

	queueRecs, snapshots := f.playlists.Document()
	doc := &domain.LibraryDocument{Version: 1, Queue: queueRecs, Playlists: snapshots}

	g := newRegistryFixture()
	g.playlists.Load(doc)
	assert.Equal(t, []string{"a", "b"}, trackNames(g.playlists.Tracks(q)))
	assert.Equal(t, []string{"c"}, trackNames(g.playlists.Tracks(mix)))
	assert.Len(t, g.playlists.Unresolved(), 3)
	for _, tr := range g.playlists.Tracks(q) {
		assert.False(t, tr.HasHandle())
	}
}

func TestNormalizePositions(t *testing.T) {
	assert.Equal(t, []int{0, 2, 3}, NormalizePositions([]int{3, 2, 3, 0, -1, 7}, 4))
	assert.Empty(t, NormalizePositions(nil, 4))
	assert.Empty(t, NormalizePositions([]int{0}, 0))
}

func TestTransferEngine_FrontOfQueueAppendElsewhere(t *testing.T) {
	f := newRegistryFixture()
	q := domain.QueueKey()
	mix, _ := f.playlists.CreatePlaylist("Mix", "")
	f.add(t, q, "q0", "q1")
	f.add(t, mix, "m0", "m1", "m2")

	res, ok := f.transfer.MoveMany(mix, []int{2, 0}, q)
	require.True(t, ok)
	assert.Equal(t, 0, res.InsertedAt)
	assert.Equal(t, []int{0, 2}, res.Positions)
	assert.Equal(t, []string{"m0", "m2", "q0", "q1"}, trackNames(f.playlists.Tracks(q)))

	res, ok = f.transfer.MoveOne(q, 3, mix)
	require.True(t, ok)
	assert.Equal(t, 1, res.InsertedAt)
	assert.Equal(t, []string{"m1", "q1"}, trackNames(f.playlists.Tracks(mix)))

	actions := res.ActionTracks()
	require.Len(t, actions, 1)
	assert.Equal(t, "q1", actions[0].Name)
	assert.Equal(t, 3, actions[0].Position)
}

func TestTransferEngine_HandlesTravelWithTracks(t *testing.T) {
	f := newRegistryFixture()
	q := domain.QueueKey()
	mix, _ := f.playlists.CreatePlaylist("Mix", "")
	f.add(t, q, "a")
	handle := f.playlists.Tracks(q)[0].Handle

	_, ok := f.transfer.MoveOne(q, 0, mix)
	require.True(t, ok)
	assert.Equal(t, handle, f.playlists.Tracks(mix)[0].Handle)
	assert.Equal(t, 1, f.handles.Len())
}

func TestTransferEngine_NoOps(t *testing.T) {
	f := newRegistryFixture()
	q := domain.QueueKey()
	f.add(t, q, "a")
	mix, _ := f.playlists.CreatePlaylist("Mix", "")

	_, ok := f.transfer.MoveOne(q, 0, q)
	assert.False(t, ok)
	_, ok = f.transfer.MoveOne(q, 1, mix)
	assert.False(t, ok)
	_, ok = f.transfer.MoveMany(q, nil, mix)
	assert.False(t, ok)
	_, ok = f.transfer.MoveOne(q, 0, domain.NamedKey("playlist_gone"))
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, trackNames(f.playlists.Tracks(q)))
}
