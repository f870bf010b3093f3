package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/audio/mock"
	blobmemory "github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore/memory"
	docmemory "github.com/tejashwikalptaru/tunedeck/internal/adapter/docstore/memory"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/handles"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.VerifyTestMain(m)
}

// deckFixture is a deck over in-memory stores and the mock engine. The stores
// survive reopen, everything else is rebuilt.
type deckFixture struct {
	t   *testing.T
	ctx context.Context
	cfg DeckConfig

	blobs   *blobmemory.Store
	docs    *docmemory.Store
	handles *handles.Table
	engine  *mock.Engine
	bus     *eventbus.SyncEventBus
	deck    *Deck

	mu     sync.Mutex
	events []domain.Event
}

func newDeckFixture(t *testing.T, opts ...func(*deckFixture)) *deckFixture {
	t.Helper()
	f := &deckFixture{
		t:     t,
		ctx:   context.Background(),
		blobs: blobmemory.NewStore(),
		docs:  docmemory.NewStore(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.open()
	return f
}

func withMaxLogEntries(n int) func(*deckFixture) {
	return func(f *deckFixture) { f.cfg.MaxLogEntries = n }
}

func withDocument(key string, body []byte) func(*deckFixture) {
	return func(f *deckFixture) {
		require.NoError(f.t, f.docs.Write(context.Background(), key, body))
	}
}

func (f *deckFixture) open() {
	f.t.Helper()
	log := logger.NewTestLogger()

	f.handles = handles.NewTable()
	f.bus = eventbus.NewSyncEventBus()
	f.mu.Lock()
	f.events = nil
	f.mu.Unlock()
	f.bus.SubscribeAll(func(e domain.Event) {
		f.mu.Lock()
		f.events = append(f.events, e)
		f.mu.Unlock()
	})
	f.engine = mock.NewEngine(f.handles, f.bus, log)
	f.deck = NewDeck(f.cfg, f.blobs, f.handles, f.docs, f.engine, f.bus, log)
	require.NoError(f.t, f.deck.Open(f.ctx))

	deck, bus := f.deck, f.bus
	f.t.Cleanup(func() {
		_ = deck.Close(context.Background())
		_ = bus.Close()
	})
}

// reopen closes the deck and opens a fresh one over the same stores.
func (f *deckFixture) reopen() {
	f.t.Helper()
	require.NoError(f.t, f.deck.Close(f.ctx))
	f.open()
}

func (f *deckFixture) handle(req Request) Result {
	f.t.Helper()
	res, err := f.deck.Handle(f.ctx, req)
	require.NoError(f.t, err)
	return res
}

func (f *deckFixture) ingest(names ...string) []domain.Track {
	f.t.Helper()
	files := make([]IngestFile, len(names))
	for i, n := range names {
		files[i] = IngestFile{Name: n, Data: []byte("audio:" + n)}
	}
	res := f.handle(RequestIngestFiles{Files: files})
	require.Empty(f.t, res.Failures)
	return res.Tracks
}

func (f *deckFixture) create(name string) domain.PlaylistKey {
	f.t.Helper()
	return f.handle(RequestCreatePlaylist{Name: name}).Playlist
}

func (f *deckFixture) names(key domain.PlaylistKey) []string {
	f.t.Helper()
	p, ok := f.deck.Playlist(key)
	require.True(f.t, ok, "playlist %s should exist", key)
	out := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		out[i] = t.Name
	}
	return out
}

func (f *deckFixture) ids(key domain.PlaylistKey) []string {
	f.t.Helper()
	p, ok := f.deck.Playlist(key)
	require.True(f.t, ok, "playlist %s should exist", key)
	out := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		out[i] = t.ID
	}
	return out
}

func (f *deckFixture) activeName() string {
	st := f.deck.State()
	if st.ActiveTrack == nil {
		return ""
	}
	return st.ActiveTrack.Name
}

func (f *deckFixture) eventsOf(t domain.EventType) []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Event
	for _, e := range f.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}
