package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T, cfg Config) *SnapshotStore {
	t.Helper()
	store, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestSnapshotStore_InMemory(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, InMemoryConfig())
	defer store.Close()

	_, found, err := store.Get(ctx, "graph")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "graph", []byte("v1")))
	require.NoError(t, store.Put(ctx, "graph", []byte("v2")))

	got, found, err := store.Get(ctx, "graph")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", string(got))

	require.NoError(t, store.Delete(ctx, "graph"))
	require.NoError(t, store.Delete(ctx, "missing"))
	_, found, err = store.Get(ctx, "graph")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSnapshotStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := openTestStore(t, DefaultConfig(dir))
	require.NoError(t, store.Put(ctx, "canvas-ai-storage", []byte(`{"nodes":{}}`)))
	require.NoError(t, store.Close())

	reopened := openTestStore(t, DefaultConfig(dir))
	defer reopened.Close()

	got, found, err := reopened.Get(ctx, "canvas-ai-storage")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"nodes":{}}`, string(got))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestSnapshotStore_CancelledContext(t *testing.T) {
	store := openTestStore(t, InMemoryConfig())
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "graph", []byte("v1")), context.Canceled)
	_, _, err := store.Get(ctx, "graph")
	assert.ErrorIs(t, err, context.Canceled)
}
