package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisWindow_AllowsUpToLimit(t *testing.T) {
	client := setupTestRedis(t)
	w := NewRedisWindow(client, "ai", 3, time.Minute)
	ctx := context.Background()

	for i := range 3 {
		ok, err := w.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, err := w.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// другой пользователь не делит окно с первым
	ok, err = w.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisWindow_SlidesAfterWindow(t *testing.T) {
	client := setupTestRedis(t)
	w := NewRedisWindow(client, "ai", 2, 50*time.Millisecond)
	ctx := context.Background()

	for range 2 {
		ok, err := w.Allow(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := w.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(60 * time.Millisecond)

	ok, err = w.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisWindow_Reset(t *testing.T) {
	client := setupTestRedis(t)
	w := NewRedisWindow(client, "login", 1, time.Minute)
	ctx := context.Background()

	ok, err := w.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, w.Reset(ctx, "10.0.0.1"))

	ok, err = w.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBlocklist(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewBlocklist(client, "blocked_ip")
	ctx := context.Background()

	blocked, err := b.IsBlocked(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, b.Block(ctx, "10.0.0.1", time.Hour))

	blocked, err = b.IsBlocked(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, blocked)

	// блокировка снимается по TTL
	mr.FastForward(time.Hour + time.Second)
	blocked, err = b.IsBlocked(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked)

	// и досрочно вручную
	require.NoError(t, b.Block(ctx, "10.0.0.2", time.Hour))
	require.NoError(t, b.Unblock(ctx, "10.0.0.2"))
	blocked, err = b.IsBlocked(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.False(t, blocked)
}
