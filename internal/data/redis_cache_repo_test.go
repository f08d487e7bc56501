package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/internal/testutil"
)

func TestRedisCacheRepo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client, "briefq:test:")
	ctx := context.Background()

	t.Run("set get delete", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "k1", []byte("v1"), time.Minute))

		got, err := repo.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		raw, err := client.Get(ctx, "briefq:test:k1").Result()
		require.NoError(t, err)
		assert.Equal(t, "v1", raw, "keys are stored under the prefix")

		deleted, err := repo.Delete(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, deleted)

		got, err = repo.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("exists and ttl", func(t *testing.T) {
		exists, err := repo.Exists(ctx, "k2")
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, repo.Set(ctx, "k2", []byte("v"), time.Minute))
		exists, err = repo.Exists(ctx, "k2")
		require.NoError(t, err)
		assert.True(t, exists)

		ok, err := repo.SetTTL(ctx, "k2", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ttl, err := client.TTL(ctx, "briefq:test:k2").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 30*time.Minute)
	})

	t.Run("set if not exists", func(t *testing.T) {
		ok, err := repo.SetIfNotExists(ctx, "lock", []byte("1"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.SetIfNotExists(ctx, "lock", []byte("2"), time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty key", func(t *testing.T) {
		require.ErrorIs(t, repo.Set(ctx, "", []byte("v"), time.Minute), ErrEmptyKey)
	})

	t.Run("health", func(t *testing.T) {
		require.NoError(t, repo.Health(ctx))
	})
}
