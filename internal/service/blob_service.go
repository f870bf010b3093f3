// Package service provides the business logic of the tunedeck track library.
package service

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

const blobStoreKind = "blob"

// BlobService fronts the durable blob store and the playback handle table.
// Every store error leaves this service as a StorageFailure.
//
// It is safe for concurrent use as long as the underlying store and table are.
type BlobService struct {
	store   ports.BlobStore
	handles ports.HandleTable
	logger  *slog.Logger
}

// NewBlobService creates a new blob service.
func NewBlobService(store ports.BlobStore, handles ports.HandleTable, logger *slog.Logger) *BlobService {
	return &BlobService{
		store:   store,
		handles: handles,
		logger:  logger.With(slog.String("service", "BlobService")),
	}
}

// Put persists data and returns its new key.
func (s *BlobService) Put(ctx context.Context, data []byte) (string, error) {
	id, err := s.store.Put(ctx, data)
	if err != nil {
		s.logger.Error("blob put failed", slog.String("size", humanize.Bytes(uint64(len(data)))), slog.Any("error", err))
		return "", domain.NewStorageFailure("put", blobStoreKind, "could not store audio payload", err)
	}
	s.logger.Debug("blob stored", slog.String("id", id), slog.String("size", humanize.Bytes(uint64(len(data)))))
	return id, nil
}

// Get returns the payload, or nil when the key is absent.
func (s *BlobService) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, domain.NewStorageFailure("get", blobStoreKind, "could not read "+id, err)
	}
	return data, nil
}

// Delete removes the payload. Deleting an absent key succeeds.
func (s *BlobService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Warn("blob delete failed", slog.String("id", id), slog.Any("error", err))
		return domain.NewStorageFailure("delete", blobStoreKind, "could not delete "+id, err)
	}
	return nil
}

// ResolvePlaybackHandle reads the payload and mints a handle for it.
// A missing blob yields InvalidPlaybackHandle and no error.
func (s *BlobService) ResolvePlaybackHandle(ctx context.Context, id string) (domain.PlaybackHandle, error) {
	data, err := s.Get(ctx, id)
	if err != nil {
		return domain.InvalidPlaybackHandle, err
	}
	if data == nil {
		return domain.InvalidPlaybackHandle, nil
	}
	return s.handles.Create(data), nil
}

// OpenHandle mints a handle directly from an in-memory payload.
func (s *BlobService) OpenHandle(data []byte) domain.PlaybackHandle {
	return s.handles.Create(data)
}

// ReleaseHandle revokes a handle. Releasing InvalidPlaybackHandle is a no-op.
func (s *BlobService) ReleaseHandle(handle domain.PlaybackHandle) {
	if handle == domain.InvalidPlaybackHandle {
		return
	}
	s.handles.Revoke(handle)
}

// LiveHandles returns the number of unreleased handles.
func (s *BlobService) LiveHandles() int {
	return s.handles.Len()
}

// Keys lists stored blob keys when the backend supports enumeration.
func (s *BlobService) Keys(ctx context.Context) ([]string, bool, error) {
	lister, ok := s.store.(ports.BlobLister)
	if !ok {
		return nil, false, nil
	}
	keys, err := lister.List(ctx)
	if err != nil {
		return nil, true, domain.NewStorageFailure("list", blobStoreKind, "could not list blobs", err)
	}
	return keys, true, nil
}
