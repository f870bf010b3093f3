// Package blobstoretest holds the behaviour every BlobStore implementation must share.
package blobstoretest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Run exercises store against the BlobStore contract.
func Run(t *testing.T, store ports.BlobStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		id, err := store.Put(ctx, []byte("fLaC\x00\x00\x00"))
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []byte("fLaC\x00\x00\x00"), got)
	})

	t.Run("keys are never reused", func(t *testing.T) {
		a, err := store.Put(ctx, []byte("a"))
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, a))

		b, err := store.Put(ctx, []byte("a"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("get absent returns nil without error", func(t *testing.T) {
		got, err := store.Get(ctx, "track_never-stored")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete twice then get", func(t *testing.T) {
		id, err := store.Put(ctx, []byte("payload"))
		require.NoError(t, err)

		assert.NoError(t, store.Delete(ctx, id))
		assert.NoError(t, store.Delete(ctx, id))

		got, err := store.Get(ctx, id)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("concurrent puts", func(t *testing.T) {
		var wg sync.WaitGroup
		ids := make([]string, 8)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, err := store.Put(ctx, []byte{byte(i)})
				assert.NoError(t, err)
				ids[i] = id
			}(i)
		}
		wg.Wait()

		for i, id := range ids {
			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, []byte{byte(i)}, got)
		}
	})
}
