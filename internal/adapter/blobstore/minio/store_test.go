package minio

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore/blobstoretest"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

// Set TUNEDECK_TEST_MINIO=host:port (with MINIO_ROOT_USER/MINIO_ROOT_PASSWORD) to run.
func TestStore_Contract(t *testing.T) {
	endpoint := os.Getenv("TUNEDECK_TEST_MINIO")
	if endpoint == "" {
		t.Skip("TUNEDECK_TEST_MINIO not set")
	}

	store, err := NewStore(context.Background(), Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ROOT_USER"),
		SecretKey: os.Getenv("MINIO_ROOT_PASSWORD"),
		Bucket:    "tunedeck-test",
		Prefix:    "run-" + uuid.NewString(),
	}, logger.NewTestLogger())
	require.NoError(t, err)
	defer store.Close()

	blobstoretest.Run(t, store)
}
