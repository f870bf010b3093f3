// Package sqlite provides a DocumentStore backed by the tunedeck SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Store persists documents in the documents table.
type Store struct {
	db    *sql.DB
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

// Read returns the document body, or nil when absent.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return body, err
}

// Write upserts the document.
func (s *Store) Write(ctx context.Context, key string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, body, time.Now().Unix())
	return err
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
	return err
}

// Close closes the database when the store owns it.
func (s *Store) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

var _ ports.DocumentStore = (*Store)(nil)
