// Package sqlite provides a BlobStore backed by the tunedeck SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Store persists payloads in the blobs table. Each call is a single statement,
// so Put and Delete are atomic with respect to Get.
type Store struct {
	db *sql.DB

	// owned is true when Close should close db
	owned bool
}

// NewStore wraps an already opened database (see internal/db.Open).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewOwningStore wraps db and closes it on Close.
func NewOwningStore(db *sql.DB) *Store {
	return &Store{db: db, owned: true}
}

// Put stores data under a new key.
func (s *Store) Put(ctx context.Context, data []byte) (string, error) {
	key := blobstore.NewKey()
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (id, data, size, created_at) VALUES (?, ?, ?, ?)`,
		key, data, len(data), time.Now().Unix())
	if err != nil {
		return "", err
	}
	return key, nil
}

// Get returns the payload, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Delete removes the payload if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, id)
	return err
}

// List returns all keys in insertion order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM blobs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// TotalSize returns the summed payload size in bytes.
func (s *Store) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM blobs`).Scan(&total)
	return total, err
}

// Close closes the database when the store owns it.
func (s *Store) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

var (
	_ ports.BlobStore  = (*Store)(nil)
	_ ports.BlobLister = (*Store)(nil)
)
