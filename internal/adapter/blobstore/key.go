// Package blobstore holds helpers shared by the BlobStore implementations.
package blobstore

import "github.com/google/uuid"

// KeyPrefix marks blob keys; a track's ID is its blob key.
const KeyPrefix = "track_"

// NewKey returns a fresh, never reused blob key.
func NewKey() string {
	return KeyPrefix + uuid.NewString()
}
