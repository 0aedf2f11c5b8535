package session

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redahead/soundhound/internal/action"
)

// newTestRedisStore connects to the Redis named by TEST_REDIS_URL (default
// local instance) and skips the test when it is unreachable.
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewRedisStore(url, time.Minute, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		t.Skipf("redis not reachable at %s, skipping integration test", url)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore("not a url", time.Minute, nil)
	assert.Error(t, err)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	const uid = int64(990042)

	t.Cleanup(func() {
		_ = store.Delete(ctx, uid)
		_ = store.Release(ctx, uid)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := store.Get(ctx, uid)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		sess := New(uid)
		sess.Action = action.Crop
		sess.Range = &TimeRange{Start: 10, End: 20}
		require.NoError(t, store.Put(ctx, sess))

		loaded, err := store.Get(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, action.Crop, loaded.Action)
		require.NotNil(t, loaded.Range)
		assert.Equal(t, TimeRange{Start: 10, End: 20}, *loaded.Range)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, uid))
		_, err := store.Get(ctx, uid)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisStore_CorruptRecordIsDropped(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	const uid = int64(990043)

	t.Cleanup(func() { _ = store.Delete(ctx, uid) })

	require.NoError(t, store.client.Set(ctx, stateKey(uid), "{not json", 0).Err())

	_, err := store.Get(ctx, uid)
	assert.ErrorIs(t, err, ErrNotFound)

	// The corrupt payload was removed, not left to fail again.
	exists, err := store.client.Exists(ctx, stateKey(uid)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedisStore_Locking(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	const uid = int64(990044)

	t.Cleanup(func() { _ = store.Release(ctx, uid) })

	ok, err := store.Acquire(ctx, uid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Acquire(ctx, uid)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Release(ctx, uid))

	ok, err = store.Acquire(ctx, uid)
	require.NoError(t, err)
	assert.True(t, ok)
}
