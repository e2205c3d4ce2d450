package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encodable values by key. Implementations report a missing key
// with ErrCacheMiss and an unreachable backend with ErrCacheDown.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Health(ctx context.Context) error
	Stats() map[string]interface{}
	Close() error
}

// NoopCache is used when Redis is disabled. Every read misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, interface{}) error { return ErrCacheMiss }

func (NoopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoopCache) Delete(context.Context, ...string) error { return nil }

func (NoopCache) Stats() map[string]interface{} { return map[string]interface{}{"enabled": false} }

func (NoopCache) Health(context.Context) error { return nil }

func (NoopCache) Close() error { return nil }
