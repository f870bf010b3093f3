// Package minio provides a BlobStore backed by an S3-compatible object store.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

const contentType = "application/octet-stream"

// Config describes the MinIO endpoint and bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool

	// Prefix is prepended to every object name, e.g. "tunedeck/blobs"
	Prefix string
}

// Store keeps each payload as one object. A single PUT is atomic for readers.
type Store struct {
	client *minio.Client
	cfg    Config
	logger *slog.Logger
}

// NewStore connects to MinIO and creates the bucket when missing.
func NewStore(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("created blob bucket", slog.String("bucket", cfg.Bucket))
	}

	return &Store{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "blobstore.minio")),
	}, nil
}

func (s *Store) object(id string) string {
	if s.cfg.Prefix == "" {
		return id
	}
	return path.Join(s.cfg.Prefix, id)
}

// Put uploads data as a new object.
func (s *Store) Put(ctx context.Context, data []byte) (string, error) {
	key := blobstore.NewKey()
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, s.object(key), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Get downloads the object, or returns nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, s.object(id), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Delete removes the object. S3 treats deleting a missing key as success.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.client.RemoveObject(ctx, s.cfg.Bucket, s.object(id), minio.RemoveObjectOptions{})
	if err != nil && isNoSuchKey(err) {
		return nil
	}
	return err
}

// List returns every blob key under the configured prefix.
func (s *Store) List(ctx context.Context) ([]string, error) {
	prefix := s.cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var keys []string
	for info := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, info.Err
		}
		keys = append(keys, strings.TrimPrefix(info.Key, prefix))
	}
	return keys, nil
}

// Close is a no-op; the HTTP client has no persistent resources to release.
func (s *Store) Close() error {
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

var (
	_ ports.BlobStore  = (*Store)(nil)
	_ ports.BlobLister = (*Store)(nil)
)
