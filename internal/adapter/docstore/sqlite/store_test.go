package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/docstore/docstoretest"
	"github.com/tejashwikalptaru/tunedeck/internal/db"
)

func TestStore_Contract(t *testing.T) {
	conn, err := db.Open(db.Memory)
	require.NoError(t, err)

	store := NewOwningStore(conn)
	defer store.Close()

	docstoretest.Run(t, store)
}
