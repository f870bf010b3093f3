// Package db opens the SQLite database backing the blob and document stores.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "tunedeck"
	dbFileName = "tunedeck.db"

	// Memory opens a private in-memory database.
	Memory = ":memory:"
)

const currentSchemaVersion = 1

// DefaultPath returns the database location under the XDG data directory,
// creating parent directories as needed.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens (or creates) the database at path and brings its schema up to date.
// An empty path means DefaultPath.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve data path: %w", err)
		}
		path = p
	}
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == Memory {
		// each pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		return fmt.Errorf("configure sqlite: %w", err)
	}

	return WithTx(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS blobs (
				id TEXT PRIMARY KEY,
				data BLOB NOT NULL,
				size INTEGER NOT NULL,
				created_at INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS documents (
				key TEXT PRIMARY KEY,
				body BLOB NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`)
		if err != nil {
			return fmt.Errorf("create tables: %w", err)
		}

		var version int
		err = tx.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
		if err != nil {
			return err
		}
		if version > currentSchemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported %d", version, currentSchemaVersion)
		}
		if version < currentSchemaVersion {
			_, err = tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
		}
		return err
	})
}
