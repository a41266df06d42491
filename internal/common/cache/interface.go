package cache

import (
	"context"
	"time"
)

// BasicOps is the key-value surface used by snapshot caching and rate limiting.
// Get reports a missing key as "" with a nil error.
type BasicOps interface {
	Get(ctx context.Context, key string) (string, error)
	// Set with a zero ttl keeps the key forever.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// Cache is BasicOps with a connection lifecycle.
type Cache interface {
	BasicOps
	Ping(ctx context.Context) error
	Close() error
}

var _ Cache = (*RedisCache)(nil)
