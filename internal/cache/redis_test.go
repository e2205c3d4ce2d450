package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCacheConfig(t *testing.T) {
	config := DefaultCacheConfig()

	assert.Equal(t, "localhost:6379", config.Addr)
	assert.Empty(t, config.Password)
	assert.Equal(t, 0, config.DB)
	assert.Equal(t, 10, config.PoolSize)
	assert.Equal(t, 5, config.MinIdleConns)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 5*time.Second, config.DialTimeout)
	assert.Equal(t, 3*time.Second, config.ReadTimeout)
	assert.Equal(t, 3*time.Second, config.WriteTimeout)
}

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cache := NewRedisCache(&CacheConfig{
		Addr:         mr.Addr(),
		PoolSize:     10,
		MaxRetries:   -1,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestNewRedisCache_WithNilConfig(t *testing.T) {
	cache := NewRedisCache(nil)
	defer cache.Close()

	require.NotNil(t, cache)
	assert.NotNil(t, cache.client)
	assert.NotNil(t, cache.breaker)
	assert.NotNil(t, cache.metrics)
}

type testData struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	original := testData{Name: "test", Value: 42}
	require.NoError(t, cache.Set(ctx, "test:key", original, time.Minute))

	var retrieved testData
	require.NoError(t, cache.Get(ctx, "test:key", &retrieved))
	assert.Equal(t, original, retrieved)

	stats := cache.metrics.GetStats()
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestRedisCache_Expiration(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "test:ttl", "data", time.Minute))
	mr.FastForward(2 * time.Minute)

	var result string
	assert.ErrorIs(t, cache.Get(ctx, "test:ttl", &result), ErrCacheMiss)
}

func TestRedisCache_Get_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	var result string
	err := cache.Get(context.Background(), "non-existent-key", &result)

	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, int64(1), cache.metrics.GetStats().Misses)
	assert.Equal(t, CircuitBreakerClosed, cache.breaker.GetState(), "misses must not trip the breaker")
}

func TestRedisCache_Set_InvalidData(t *testing.T) {
	cache, _ := setupTestRedis(t)

	err := cache.Set(context.Background(), "test:key", make(chan int), time.Minute)
	assert.Error(t, err)
}

func TestRedisCache_Get_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Set("test:invalid", "invalid-json")

	var result map[string]interface{}
	err := cache.Get(context.Background(), "test:invalid", &result)

	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "test:a", "x", time.Minute))
	require.NoError(t, cache.Set(ctx, "test:b", "y", time.Minute))

	require.NoError(t, cache.Delete(ctx, "test:a", "test:b"))
	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))

	assert.NoError(t, cache.Delete(ctx))
}

func TestRedisCache_Health(t *testing.T) {
	cache, mr := setupTestRedis(t)

	assert.NoError(t, cache.Health(context.Background()))

	mr.Close()
	assert.Error(t, cache.Health(context.Background()))
}

func TestRedisCache_BreakerOpensWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisCache(&CacheConfig{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
		ReadTimeout: 100 * time.Millisecond,
		Breaker:     &CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute, HalfOpenMaxCalls: 1},
	})
	defer cache.Close()
	mr.Close()

	ctx := context.Background()
	var result string
	for i := 0; i < 2; i++ {
		err := cache.Get(ctx, "k", &result)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrCacheDown))
	}

	err := cache.Get(ctx, "k", &result)
	assert.ErrorIs(t, err, ErrCacheDown)
	assert.Equal(t, CircuitBreakerOpen, cache.breaker.GetState())
}

func TestRedisCache_Stats(t *testing.T) {
	cache, _ := setupTestRedis(t)

	var result string
	cache.Get(context.Background(), "missing", &result)

	stats := cache.Stats()
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Contains(t, stats, "circuit_breaker")
	assert.Contains(t, stats, "pool_total")
}

func TestRedisCache_Close(t *testing.T) {
	cache, _ := setupTestRedis(t)

	require.NoError(t, cache.Close())
	assert.Error(t, cache.Set(context.Background(), "test", "data", time.Minute))
}

func TestNoopCache(t *testing.T) {
	var c Cache = NoopCache{}
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	var out string
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrCacheMiss)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.Equal(t, false, c.Stats()["enabled"])
	assert.NoError(t, c.Health(ctx))
	assert.NoError(t, c.Close())
}

func TestCacheMetrics(t *testing.T) {
	m := NewCacheMetrics()
	assert.Zero(t, m.HitRate())

	m.RecordHit()
	m.RecordHit()
	m.RecordHit()
	m.RecordMiss()
	assert.InDelta(t, 75.0, m.HitRate(), 0.001)

	m.Reset()
	assert.Zero(t, m.GetStats().Hits)
}

var _ Cache = (*RedisCache)(nil)

func BenchmarkRedisCache_Get(b *testing.B) {
	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		b.Fatal(err)
	}
	defer mr.Close()

	cache := NewRedisCache(&CacheConfig{Addr: mr.Addr()})
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "benchmark:key", map[string]string{"key": "value"}, time.Minute); err != nil {
		b.Fatalf("Failed to set cache: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var result map[string]string
		if err := cache.Get(ctx, "benchmark:key", &result); err != nil {
			b.Fatalf("Failed to get cache: %v", err)
		}
	}
}
