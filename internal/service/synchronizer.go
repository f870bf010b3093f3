package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Document keys.
const (
	LibraryDocumentKey   = "library"
	ActionLogDocumentKey = "action_log"
)

// DefaultReconcileConcurrency bounds parallel blob reads during startup.
const DefaultReconcileConcurrency = 8

const documentStoreKind = "document"

// Resolution is the outcome of resolving one track's handle at startup.
type Resolution struct {
	Track  *domain.Track
	Handle domain.PlaybackHandle
	Err    error
}

// Missing reports whether the track's blob is gone.
func (r Resolution) Missing() bool {
	return r.Err == nil && r.Handle == domain.InvalidPlaybackHandle
}

// Synchronizer mirrors the library and action log to the document store and
// resolves playback handles after a load.
type Synchronizer struct {
	docs        ports.DocumentStore
	blobs       *BlobService
	concurrency int
	logger      *slog.Logger
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(docs ports.DocumentStore, blobs *BlobService, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		docs:        docs,
		blobs:       blobs,
		concurrency: DefaultReconcileConcurrency,
		logger:      logger.With(slog.String("service", "Synchronizer")),
	}
}

// SetConcurrency changes the reconcile parallelism (<= 0 means unbounded).
func (s *Synchronizer) SetConcurrency(n int) {
	s.concurrency = n
}

// Save writes the library document.
func (s *Synchronizer) Save(ctx context.Context, doc domain.LibraryDocument) error {
	return s.write(ctx, LibraryDocumentKey, doc)
}

// Load reads the library document. An absent document yields an empty one.
func (s *Synchronizer) Load(ctx context.Context) (*domain.LibraryDocument, error) {
	doc := &domain.LibraryDocument{Version: domain.LibraryDocumentVersion}
	found, err := s.read(ctx, LibraryDocumentKey, doc)
	if err != nil || !found {
		return &domain.LibraryDocument{Version: domain.LibraryDocumentVersion}, err
	}
	return doc, nil
}

// SaveLog writes the action log document.
func (s *Synchronizer) SaveLog(ctx context.Context, doc domain.ActionLogDocument) error {
	return s.write(ctx, ActionLogDocumentKey, doc)
}

// LoadLog reads the action log document. An absent document yields an empty log.
func (s *Synchronizer) LoadLog(ctx context.Context) (domain.ActionLogDocument, error) {
	var doc domain.ActionLogDocument
	found, err := s.read(ctx, ActionLogDocumentKey, &doc)
	if err != nil || !found {
		return domain.ActionLogDocument{Version: 1}, err
	}
	return doc, nil
}

func (s *Synchronizer) write(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return domain.NewStorageFailure("encode", documentStoreKind, key, err)
	}
	if err := s.docs.Write(ctx, key, body); err != nil {
		s.logger.Error("document write failed", slog.String("key", key), slog.Any("error", err))
		return domain.NewStorageFailure("write", documentStoreKind, key, err)
	}
	return nil
}

func (s *Synchronizer) read(ctx context.Context, key string, v any) (bool, error) {
	body, err := s.docs.Read(ctx, key)
	if err != nil {
		return false, domain.NewStorageFailure("read", documentStoreKind, key, err)
	}
	if body == nil {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.logger.Warn("document is unreadable, starting empty", slog.String("key", key), slog.Any("error", err))
		return false, domain.NewStorageFailure("decode", documentStoreKind, key, err)
	}
	return true, nil
}

// Reconcile resolves handles for tracks concurrently. Each result is passed to
// apply as soon as it is known; apply is responsible for its own locking and for
// releasing handles it does not keep. A missing or unreadable blob never holds
// up the others.
func (s *Synchronizer) Reconcile(ctx context.Context, tracks []*domain.Track, apply func(Resolution)) error {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}

	err := Concurrently(ctx, s.concurrency, ids, func(ctx context.Context, i int, id string) error {
		handle, err := s.blobs.ResolvePlaybackHandle(ctx, id)
		apply(Resolution{Track: tracks[i], Handle: handle, Err: err})
		if err != nil {
			s.logger.Warn("could not resolve track", slog.String("id", id), slog.Any("error", err))
		}
		return err
	})
	if err != nil && errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
