package prefs

import (
	"context"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/docstore/docstoretest"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

func newTestStore() *Store {
	app := test.NewApp()
	return NewStore(app.Preferences(), logger.NewTestLogger())
}

func TestStore_Contract(t *testing.T) {
	docstoretest.Run(t, newTestStore())
}

func TestStore_NamespacesKeys(t *testing.T) {
	app := test.NewApp()
	store := NewStore(app.Preferences(), logger.NewTestLogger())

	require.NoError(t, store.Write(context.Background(), "library", []byte(`{}`)))

	assert.Equal(t, `{}`, app.Preferences().String("tunedeck.doc.library"))
	assert.Empty(t, app.Preferences().String("library"))
}
