// Package docstoretest holds the behaviour every DocumentStore implementation must share.
package docstoretest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Run exercises store against the DocumentStore contract.
func Run(t *testing.T, store ports.DocumentStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("read absent", func(t *testing.T) {
		body, err := store.Read(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, body)
	})

	t.Run("write replaces", func(t *testing.T) {
		require.NoError(t, store.Write(ctx, "library", []byte(`{"version":1}`)))
		require.NoError(t, store.Write(ctx, "library", []byte(`{"version":1,"volume":0.5}`)))

		body, err := store.Read(ctx, "library")
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":1,"volume":0.5}`, string(body))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, store.Write(ctx, "a", []byte(`"a"`)))
		require.NoError(t, store.Write(ctx, "b", []byte(`"b"`)))

		body, err := store.Read(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, `"a"`, string(body))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Write(ctx, "gone", []byte(`{}`)))
		assert.NoError(t, store.Delete(ctx, "gone"))
		assert.NoError(t, store.Delete(ctx, "gone"))

		body, err := store.Read(ctx, "gone")
		assert.NoError(t, err)
		assert.Nil(t, body)
	})
}
