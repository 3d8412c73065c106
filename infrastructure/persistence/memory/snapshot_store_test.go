package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	_, found, err := store.Get(ctx, "graph")
	require.NoError(t, err)
	assert.False(t, found)

	data := []byte(`{"nodes":{}}`)
	require.NoError(t, store.Put(ctx, "graph", data))
	data[0] = 'X'

	got, found, err := store.Get(ctx, "graph")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"nodes":{}}`, string(got), "stored bytes must not alias the caller's slice")

	require.NoError(t, store.Delete(ctx, "graph"))
	require.NoError(t, store.Delete(ctx, "graph"))
	_, found, _ = store.Get(ctx, "graph")
	assert.False(t, found)
}

func TestSnapshotStore_Failures(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()
	require.NoError(t, store.Put(ctx, "graph", []byte("v1")))

	diskFull := errors.New("disk full")
	store.SetFailWrites(diskFull)
	assert.ErrorIs(t, store.Put(ctx, "graph", []byte("v2")), diskFull)
	assert.ErrorIs(t, store.Delete(ctx, "graph"), diskFull)

	got, _, err := store.Get(ctx, "graph")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	store.SetFailWrites(nil)
	assert.NoError(t, store.Put(ctx, "graph", []byte("v2")))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = store.Get(cancelled, "graph")
	assert.ErrorIs(t, err, context.Canceled)
}
