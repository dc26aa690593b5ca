package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const rateLimitPrefix = "ratelimit:bids:"

// RateLimiter bounds how often a key may act inside a time window
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// redisRateLimiter implements sliding-window rate limiting on Redis sorted
// sets, so limits hold across every instance of the engine.
type redisRateLimiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisRateLimiter creates a Redis-backed rate limiter
func NewRedisRateLimiter(client *redis.Client, logger *slog.Logger) RateLimiter {
	return &redisRateLimiter{client: client, logger: logger}
}

// Allow records the request and reports whether it fits inside the window
func (r *redisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window)
	rateLimitKey := rateLimitPrefix + key

	member := fmt.Sprintf("%d-%d", now.UnixNano(), now.Nanosecond()%1000)

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, rateLimitKey, "-inf", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, rateLimitKey)
	pipe.ZAdd(ctx, rateLimitKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: member,
	})
	pipe.Expire(ctx, rateLimitKey, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limiter pipeline failed: %w", err)
	}

	if countCmd.Val() >= int64(limit) {
		// Roll back the entry we just recorded
		r.client.ZRem(ctx, rateLimitKey, member)
		r.logger.Debug("rate limit exceeded", "key", key, "limit", limit, "window", window)
		return false, nil
	}
	return true, nil
}

// maxTrackedKeys caps the local limiter's per-key map. Past the cap the map
// is reset rather than grown forever; local limits are advisory per instance.
const maxTrackedKeys = 10000

// localRateLimiter is the in-process fallback used when Redis is disabled.
// Limits then hold per instance only.
type localRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	burst    int
}

// NewLocalRateLimiter creates an in-process token-bucket limiter
func NewLocalRateLimiter(burst int) RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &localRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		burst:    burst,
	}
}

func (l *localRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxTrackedKeys {
			l.limiters = make(map[string]*rate.Limiter)
		}
		perSecond := rate.Limit(float64(limit) / window.Seconds())
		lim = rate.NewLimiter(perSecond, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	return lim.Allow(), nil
}
