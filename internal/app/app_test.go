package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/config"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
	"github.com/tejashwikalptaru/tunedeck/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.VerifyTestMain(m)
}

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "tunedeck.db")
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := NewApplication(context.Background(), Options{Config: cfg, Logger: logger.NewTestLogger()})
	require.NoError(t, err)
	return app
}

func TestNewApplication(t *testing.T) {
	app := newTestApplication(t, sqliteConfig(t))

	assert.NotNil(t, app.Deck())
	assert.NotNil(t, app.Library())
	assert.NotNil(t, app.GetEventBus())
	assert.Equal(t, domain.QueueKey(), app.Deck().State().Viewed)

	require.NoError(t, app.Shutdown(context.Background()))
	// Shutdown again should not fail
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestApplication_StatePersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	music := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(music, "b.mp3"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(music, "a.ogg"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(music, "cover.jpg"), []byte("c"), 0o644))

	first := newTestApplication(t, cfg)
	res, err := first.Import(ctx, music)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	require.Len(t, res.Tracks, 2)

	created, err := first.Deck().Handle(ctx, service.RequestCreatePlaylist{Name: "Mix"})
	require.NoError(t, err)
	_, err = first.Deck().Handle(ctx, service.RequestMoveTrack{Source: domain.QueueKey(), Position: 1, Target: created.Playlist})
	require.NoError(t, err)
	require.NoError(t, first.Shutdown(ctx))

	second := newTestApplication(t, cfg)
	defer second.Shutdown(ctx)

	queue, ok := second.Deck().Playlist(domain.QueueKey())
	require.True(t, ok)
	require.Len(t, queue.Tracks, 1)
	assert.Equal(t, "a", queue.Tracks[0].Name)

	mix, ok := second.Deck().Playlist(created.Playlist)
	require.True(t, ok)
	require.Len(t, mix.Tracks, 1)
	assert.Equal(t, "b", mix.Tracks[0].Name)
	assert.Len(t, second.Deck().History(), 4)
}

func TestApplication_MemoryBackends(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Blobs = config.BackendMemory
	cfg.Storage.Documents = config.BackendMemory

	app := newTestApplication(t, cfg)
	assert.Nil(t, app.database)
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestApplication_PrefsNeedPreferences(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Blobs = config.BackendMemory
	cfg.Storage.Documents = config.BackendPrefs

	_, err := NewApplication(context.Background(), Options{Config: cfg, Logger: logger.NewTestLogger()})
	assert.Error(t, err)
}

func TestVersionInfo(t *testing.T) {
	v := VersionInfo{Version: "dev", GitCommit: "abc", BuildTime: "now"}
	assert.Equal(t, "dev", v.Short())
	assert.Equal(t, "tunedeck dev (commit: abc, built: now)", v.FullString())

	v.GitTag = "v1.2.0"
	assert.Equal(t, "v1.2.0", v.Short())
}
