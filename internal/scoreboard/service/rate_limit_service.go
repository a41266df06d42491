package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scoreboard/internal/common/cache"
	pkgerrors "scoreboard/pkg/errors"

	"golang.org/x/time/rate"
)

// RateLimitService enforces fixed-window limits in Redis. Without a cache it
// falls back to a token bucket per key held in process.
type RateLimitService struct {
	cache        cache.BasicOps
	window       time.Duration
	redisTimeout time.Duration

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

func NewRateLimitService(cacheClient cache.BasicOps, window time.Duration, redisTimeout time.Duration) *RateLimitService {
	if window <= 0 {
		window = time.Minute
	}
	if redisTimeout <= 0 {
		redisTimeout = time.Second
	}
	return &RateLimitService{
		cache:        cacheClient,
		window:       window,
		redisTimeout: redisTimeout,
		local:        make(map[string]*rate.Limiter),
	}
}

// Allow admits one request for key, at most max per window.
func (s *RateLimitService) Allow(ctx context.Context, key string, max int, window time.Duration) error {
	if max <= 0 {
		return nil
	}
	if window <= 0 {
		window = s.window
	}
	if s.cache == nil {
		return s.allowLocal(key, max, window)
	}

	ctxCache, cancel := context.WithTimeout(ctx, s.redisTimeout)
	defer cancel()

	acquired, err := s.cache.SetNX(ctxCache, key, 1, window)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed: %v", err)
	}
	var count int64
	if acquired {
		count = 1
	} else {
		count, err = s.cache.Incr(ctxCache, key)
		if err != nil {
			return pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed: %v", err)
		}
		ttl, ttlErr := s.cache.TTL(ctxCache, key)
		if ttlErr == nil && ttl <= 0 {
			_ = s.cache.Expire(ctxCache, key, window)
		}
	}
	if int(count) > max {
		return pkgerrors.New(pkgerrors.TooManyRequests).WithMessage(fmt.Sprintf("rate limit exceeded for %s", key))
	}
	return nil
}

func (s *RateLimitService) allowLocal(key string, max int, window time.Duration) error {
	s.mu.Lock()
	limiter, ok := s.local[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(window/time.Duration(max)), max)
		s.local[key] = limiter
	}
	s.mu.Unlock()

	if !limiter.Allow() {
		return pkgerrors.New(pkgerrors.TooManyRequests).WithMessage(fmt.Sprintf("rate limit exceeded for %s", key))
	}
	return nil
}
