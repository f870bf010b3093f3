// Package redis provides a DocumentStore backed by Redis string keys.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Config describes the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces the keys, e.g. "tunedeck:"
	Prefix string
}

// Store keeps each document under Prefix+key. SET replaces atomically.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore connects and pings the server.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return &Store{client: client, prefix: cfg.Prefix}, nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Read returns the document, or nil when the key does not exist.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	body, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return body, err
}

// Write stores the document without expiry.
func (s *Store) Write(ctx context.Context, key string, body []byte) error {
	return s.client.Set(ctx, s.prefix+key, body, 0).Err()
}

// Delete removes the key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Close closes the client connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ ports.DocumentStore = (*Store)(nil)
