package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesSchemaOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tunedeck.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// reopening must not insert a second version row
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&rows))
	assert.Equal(t, 1, rows)

	for _, table := range []string{"blobs", "documents"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, err := Open(Memory)
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	err = WithTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO documents (key, body, updated_at) VALUES ('k', 'v', 0)`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count))
	assert.Zero(t, count)
}

func TestWithTx_Commits(t *testing.T) {
	db, err := Open(Memory)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, WithTx(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO documents (key, body, updated_at) VALUES ('k', 'v', 0)`)
		return err
	}))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count))
	assert.Equal(t, 1, count)
}
