package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/review-ingest/internal/testutil"
)

func TestRunLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)
	t.Cleanup(func() { _ = client.Close() })

	lock := NewRunLockWithPrefix(client, "test:lock:")
	ctx := context.Background()

	t.Run("second acquire fails until release", func(t *testing.T) {
		token, ok, err := lock.Acquire(ctx, "ingest", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		require.NotEmpty(t, token)

		_, ok, err = lock.Acquire(ctx, "ingest", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, lock.Release(ctx, "ingest", token))

		token2, ok, err := lock.Acquire(ctx, "ingest", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, lock.Release(ctx, "ingest", token2))
	})

	t.Run("release with a stale token keeps the lock", func(t *testing.T) {
		token, ok, err := lock.Acquire(ctx, "process", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, lock.Release(ctx, "process", "not-the-owner"))

		exists, err := client.Exists(ctx, "test:lock:process").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)

		require.NoError(t, lock.Release(ctx, "process", token))
	})

	t.Run("refresh extends only the owner's lock", func(t *testing.T) {
		token, ok, err := lock.Acquire(ctx, "reaper", time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		refreshed, err := lock.Refresh(ctx, "reaper", token, time.Minute)
		require.NoError(t, err)
		assert.True(t, refreshed)

		ttl := client.PTTL(ctx, "test:lock:reaper").Val()
		assert.Greater(t, ttl, 30*time.Second)

		refreshed, err = lock.Refresh(ctx, "reaper", "other", time.Minute)
		require.NoError(t, err)
		assert.False(t, refreshed)

		require.NoError(t, lock.Release(ctx, "reaper", token))
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		_, _, err := lock.Acquire(ctx, "", time.Second)
		assert.Error(t, err)
	})
}
