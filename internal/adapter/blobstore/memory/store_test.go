package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/blobstore/blobstoretest"
)

func TestStore_Contract(t *testing.T) {
	blobstoretest.Run(t, NewStore())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id, err := s.Put(ctx, []byte("abc"))
	require.NoError(t, err)

	got, _ := s.Get(ctx, id)
	got[0] = 'z'

	again, _ := s.Get(ctx, id)
	assert.Equal(t, "abc", string(again))
}

func TestStore_FailPut(t *testing.T) {
	s := NewStore()
	s.FailPut = errors.New("quota exceeded")

	_, err := s.Put(context.Background(), []byte("x"))
	assert.EqualError(t, err, "quota exceeded")
	assert.Zero(t, s.Len())
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a, _ := s.Put(ctx, []byte("a"))
	b, _ := s.Put(ctx, []byte("b"))

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, keys)
}
