// Package ports define storage interfaces for data persistence abstraction.
// These interfaces allow swapping the blob and document backends.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// BlobStore is a durable key-value store of audio payloads.
//
// Implementations must be safe for concurrent use, and a Put or Delete must be
// atomic with respect to a concurrent Get of the same key.
type BlobStore interface {
	// Put stores data under a freshly generated, never reused key.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the payload, or (nil, nil) when the key is absent.
	Get(ctx context.Context, id string) ([]byte, error)

	// Delete removes the payload. Deleting an absent key is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// BlobLister is implemented by blob stores that can enumerate their keys.
// It is used to find orphaned payloads.
type BlobLister interface {
	List(ctx context.Context) ([]string, error)
}

// DocumentStore persists small named documents, such as the library metadata
// document and the action log.
type DocumentStore interface {
	// Read returns the document body, or (nil, nil) when absent.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write replaces the document body.
	Write(ctx context.Context, key string, body []byte) error

	// Delete removes the document. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// HandleTable manages ephemeral in-process playback handles, the analogue of
// object URLs: a handle is minted from a payload and must be revoked to free it.
type HandleTable interface {
	// Create mints a new handle for data.
	Create(data []byte) domain.PlaybackHandle

	// Open returns the payload behind a live handle.
	Open(handle domain.PlaybackHandle) ([]byte, bool)

	// Revoke frees the handle. Revoking an unknown handle is a no-op.
	Revoke(handle domain.PlaybackHandle)

	// Len returns the number of live handles.
	Len() int
}
