package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/docstore/docstoretest"
)

// Set TUNEDECK_TEST_REDIS=host:port to run against a live server.
func TestStore_Contract(t *testing.T) {
	addr := os.Getenv("TUNEDECK_TEST_REDIS")
	if addr == "" {
		t.Skip("TUNEDECK_TEST_REDIS not set")
	}

	store, err := NewStore(context.Background(), Config{Addr: addr, Prefix: "tunedeck-test:" + uuid.NewString() + ":"})
	require.NoError(t, err)
	defer store.Close()

	docstoretest.Run(t, store)
}
