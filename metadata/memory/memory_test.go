package memory

import (
	"context"
	"testing"

	"github.com/anoixa/image-thumbnailer/metadata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetOverwrite(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	_, err = s.Get(ctx, "images/photo/small")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, s.Set(ctx, "images/photo/small", types.Record{URL: "u1"}))
	rec, err := s.Get(ctx, "images/photo/small")
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.URL)

	require.NoError(t, s.Set(ctx, "images/photo/small", types.Record{URL: "u2"}))
	rec, err = s.Get(ctx, "images/photo/small")
	require.NoError(t, err)
	assert.Equal(t, "u2", rec.URL)
}

func TestStore_CanceledContext(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Set(ctx, "k", types.Record{URL: "u"}), context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}

func TestStore_Name(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	assert.Equal(t, "memory", s.Name())
}
