package cache

import (
	"context"
	"math/rand/v2"
	"time"
)

// Codec converts values to and from their cached string form.
type Codec[T any] struct {
	Encode func(T) (string, error)
	Decode func(string) (T, error)
}

// GetOrLoad reads key through c, calling load on a miss or on a value that
// no longer decodes. Cache failures degrade to a plain load.
func GetOrLoad[T any](ctx context.Context, c BasicOps, key string, ttl time.Duration, codec Codec[T], load func(context.Context) (T, error)) (T, error) {
	if raw, err := c.Get(ctx, key); err == nil && raw != "" {
		if v, err := codec.Decode(raw); err == nil {
			return v, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if raw, err := codec.Encode(v); err == nil {
		_ = c.Set(ctx, key, raw, ttl)
	}
	return v, nil
}

// JitterTTL trims up to a tenth off ttl so keys written together expire apart.
func JitterTTL(ttl time.Duration) time.Duration {
	spread := int64(ttl / 10)
	if spread <= 0 {
		return ttl
	}
	return ttl - time.Duration(rand.Int64N(spread+1))
}
