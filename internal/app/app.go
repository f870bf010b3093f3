// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/audio/mock"
	blobmemory "github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore/memory"
	blobminio "github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore/minio"
	blobsqlite "github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore/sqlite"
	docmemory "github.com/tejashwikalptaru/tunedeck/internal/adapter/docstore/memory"
	docprefs "github.com/tejashwikalptaru/tunedeck/internal/adapter/docstore/prefs"
	docredis "github.com/tejashwikalptaru/tunedeck/internal/adapter/docstore/redis"
	docsqlite "github.com/tejashwikalptaru/tunedeck/internal/adapter/docstore/sqlite"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/handles"
	"github.com/tejashwikalptaru/tunedeck/internal/config"
	"github.com/tejashwikalptaru/tunedeck/internal/db"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

// Application is the root application structure that holds all dependencies.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies from the configuration
// - Opening the deck and closing everything in reverse order
type Application struct {
	logger    *slog.Logger
	logCloser io.Closer

	// Infrastructure
	database *sql.DB
	blobs    ports.BlobStore
	docs     ports.DocumentStore
	handles  *handles.Table
	bus      *eventbus.SyncEventBus
	engine   *mock.Engine

	// Services
	deck    *service.Deck
	library *service.LibraryService

	closed bool
}

// Options holds what the configuration file cannot express.
type Options struct {
	Config *config.Config

	// Preferences backs the "prefs" document store. Hosts embedding tunedeck in a
	// Fyne application pass fyne.CurrentApp().Preferences().
	Preferences fyne.Preferences

	// Logger replaces the logger built from Config.Log (tests use this)
	Logger *slog.Logger
}

// NewApplication builds every component and opens the deck.
// On failure, everything created so far is closed again.
func NewApplication(ctx context.Context, opts Options) (_ *Application, err error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	app := &Application{}
	defer func() {
		if err != nil {
			_ = app.closeInfrastructure()
			if app.logCloser != nil {
				_ = app.logCloser.Close()
			}
		}
	}()

	// Step 1: Create logger
	if opts.Logger != nil {
		app.logger = opts.Logger
	} else {
		app.logger, app.logCloser = logger.NewLogger(loggerConfig(cfg.Log))
	}
	app.logger.Info("initializing application",
		slog.String("version", GetVersionInfo().FullString()),
		slog.String("blobs", cfg.Storage.Blobs),
		slog.String("documents", cfg.Storage.Documents))

	// Step 2: Open stores
	if cfg.UsesSQLite() {
		app.database, err = db.Open(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}
	if app.blobs, err = app.openBlobStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.docs, err = app.openDocumentStore(ctx, cfg, opts.Preferences); err != nil {
		return nil, err
	}

	// Step 3: Create an event bus, the handle table and the engine
	app.bus = eventbus.NewSyncEventBus(eventbus.WithLogger(app.logger))
	app.handles = handles.NewTable()
	app.engine = mock.NewEngine(app.handles, app.bus, app.logger)

	// Step 4: Create services
	app.library = service.NewLibraryService(app.logger, cfg.Ingest.Extensions)
	app.deck = service.NewDeck(service.DeckConfig{
		Extensions:           cfg.Ingest.Extensions,
		MaxLogEntries:        cfg.History.MaxEntries,
		ReconcileConcurrency: cfg.Reconcile.Concurrency,
	}, app.blobs, app.handles, app.docs, app.engine, app.bus, app.logger)

	// Step 5: Load saved state
	if err := app.deck.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}

	return app, nil
}

func loggerConfig(c config.LogConfig) logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.ParseLevel(c.Level, cfg.Level)
	if c.Format != "" {
		cfg.Format = c.Format
	}
	if c.File != "" {
		cfg.File = &logger.FileConfig{
			Path:       c.File,
			MaxSizeMB:  c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAgeDays: c.MaxAgeDays,
			Compress:   c.Compress,
		}
	}
	return cfg
}

func (a *Application) openBlobStore(ctx context.Context, cfg *config.Config) (ports.BlobStore, error) {
	switch cfg.Storage.Blobs {
	case config.BackendMemory:
		return blobmemory.NewStore(), nil
	case config.BackendMinio:
		m := cfg.Storage.Minio
		store, err := blobminio.NewStore(ctx, blobminio.Config{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			Region:    m.Region,
			UseSSL:    m.UseSSL,
			Prefix:    m.Prefix,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open blob store: %w", err)
		}
		return store, nil
	default:
		return blobsqlite.NewStore(a.database), nil
	}
}

func (a *Application) openDocumentStore(ctx context.Context, cfg *config.Config, prefs fyne.Preferences) (ports.DocumentStore, error) {
	switch cfg.Storage.Documents {
	case config.BackendMemory:
		return docmemory.NewStore(), nil
	case config.BackendRedis:
		r := cfg.Storage.Redis
		store, err := docredis.NewStore(ctx, docredis.Config{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open document store: %w", err)
		}
		return store, nil
	case config.BackendPrefs:
		if prefs == nil {
			return nil, errors.New("the prefs document store needs Fyne preferences")
		}
		return docprefs.NewStore(prefs, a.logger), nil
	default:
		return docsqlite.NewStore(a.database), nil
	}
}

// Deck returns the opened deck.
func (a *Application) Deck() *service.Deck {
	return a.deck
}

// Library returns the file scanner.
func (a *Application) Library() *service.LibraryService {
	return a.library
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// GetEventBus returns the event bus so callers can observe deck events.
func (a *Application) GetEventBus() ports.EventBus {
	return a.bus
}

// Import scans paths, reads the audio files found and ingests them into the
// queue in order. Files that fail are reported in the result.
func (a *Application) Import(ctx context.Context, paths ...string) (service.Result, error) {
	files, err := a.library.Collect(ctx, paths...)
	if err != nil {
		return service.Result{}, err
	}
	inputs, readErr := a.library.Read(ctx, files)
	res, err := a.deck.Handle(ctx, service.RequestIngestFiles{Files: inputs})
	if readErr != nil {
		res.Failures = append(res.Failures, readErr)
	}
	return res, err
}

// Shutdown saves state and releases everything. Calling it twice is a no-op.
func (a *Application) Shutdown(ctx context.Context) error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.logger.Info("shutting down application")

	var errs []error
	if a.deck != nil {
		if err := a.deck.Close(ctx); err != nil {
			a.logger.Warn("failed to save state", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	errs = append(errs, a.closeInfrastructure())

	a.logger.Info("application shutdown complete")
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}

// closeInfrastructure closes the engine, bus and stores in reverse order of creation.
func (a *Application) closeInfrastructure() error {
	var errs []error
	if a.engine != nil {
		errs = append(errs, a.engine.Close())
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil && !errors.Is(err, eventbus.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if a.docs != nil {
		errs = append(errs, a.docs.Close())
	}
	if a.blobs != nil {
		errs = append(errs, a.blobs.Close())
	}
	if a.database != nil {
		errs = append(errs, a.database.Close())
	}
	return errors.Join(errs...)
}
