package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

const opTimeout = 3 * time.Second

type RedisCache struct {
	client  *redis.Client
	breaker *CircuitBreaker
	metrics *CacheMetrics
}

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Breaker      *CircuitBreakerConfig
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func NewRedisCache(config *CacheConfig) *RedisCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisCache{
		client:  rdb,
		breaker: NewCircuitBreaker(config.Breaker),
		metrics: NewCacheMetrics(),
	}
}

// run executes fn through the circuit breaker. An open breaker is reported as ErrCacheDown.
func (r *RedisCache) run(fn func() error) error {
	err := r.breaker.Execute(fn)
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	}
	return err
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err = r.run(func() error {
		return r.client.Set(ctx, key, data, expiration).Err()
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to set cache: %w", err)
	}

	r.metrics.RecordSet()
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var data []byte
	miss := false
	err := r.run(func() error {
		raw, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// a miss is a healthy answer
			miss = true
			return nil
		}
		data = raw
		return err
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to get from cache: %w", err)
	}
	if miss {
		r.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	r.metrics.RecordHit()
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.run(func() error {
		return r.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		r.metrics.RecordError()
		return err
	}

	r.metrics.RecordDelete()
	return nil
}

func (r *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]interface{} {
	poolStats := r.client.PoolStats()
	counters := r.metrics.GetStats()

	return map[string]interface{}{
		"enabled":         true,
		"hits":            counters.Hits,
		"misses":          counters.Misses,
		"errors":          counters.Errors,
		"sets":            counters.Sets,
		"deletes":         counters.Deletes,
		"hit_rate":        counters.HitRate,
		"circuit_breaker": r.breaker.GetStats(),
		"pool_hits":       poolStats.Hits,
		"pool_misses":     poolStats.Misses,
		"pool_timeouts":   poolStats.Timeouts,
		"pool_total":      poolStats.TotalConns,
		"pool_idle":       poolStats.IdleConns,
		"pool_stale":      poolStats.StaleConns,
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
