package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/annel0/roadmap/internal/config"
	"github.com/annel0/roadmap/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.GetLoggerManager().DisableFiles()
	os.Exit(m.Run())
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	_, err := c.Get(ctx, "missing")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	// возвращаемое значение — копия
	val[0] = 'x'
	val, _ = c.Get(ctx, "k")
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.ErrorIs(t, c.Set(ctx, "", []byte("v"), 0), ErrInvalidKey)
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss, "значение истекло")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_ClearAndMetrics(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "c")

	m := c.GetMetrics()
	assert.Equal(t, int64(2), m.TotalRequests)
	assert.Equal(t, int64(1), m.CacheHits)
	assert.Equal(t, int64(1), m.CacheMisses)
	assert.InDelta(t, 0.5, m.HitRatio, 1e-9)
	assert.Equal(t, int64(2), m.TotalKeys)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestOpen(t *testing.T) {
	c, err := Open(config.CacheConfig{Backend: config.CacheMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = Open(config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func TestRedisCache_BasicOperations(t *testing.T) {
	redisCache, err := NewRedisCache(&RedisConfig{
		RedisURL:  redisAddr(),
		RedisDB:   15,
		KeyPrefix: "roadmap:test:",
	})
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	defer redisCache.Close()

	ctx := context.Background()
	require.NoError(t, redisCache.Clear(ctx))

	require.NoError(t, redisCache.Set(ctx, "1:64:1", []byte("gravel"), time.Minute))
	val, err := redisCache.Get(ctx, "1:64:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("gravel"), val)

	require.NoError(t, redisCache.Clear(ctx))
	_, err = redisCache.Get(ctx, "1:64:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	m := redisCache.GetMetrics()
	assert.Equal(t, int64(2), m.TotalRequests)
	assert.Equal(t, int64(1), m.CacheHits)
}
