package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Abubakar312/chat-app-backend/internal/logging"
	"github.com/Abubakar312/chat-app-backend/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// Counter counts hits of key within the current fixed window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter keeps one counter per key and window in Redis.
type RedisCounter struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	return &RedisCounter{client: client, now: time.Now}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	bucket := c.now().UnixNano() / int64(window)
	windowKey := fmt.Sprintf("%s:%d", key, bucket)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter rejects clients that exceed Requests per Window. Counter
// failures let the request through.
type RateLimiter struct {
	counter  Counter
	requests int
	window   time.Duration
	name     string
}

func NewRateLimiter(counter Counter, name string, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{counter: counter, requests: requests, window: window, name: name}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		key := "ratelimit:" + rl.name + ":" + ip

		count, err := rl.counter.Incr(r.Context(), key, rl.window)
		if err != nil {
			logger := logging.Ctx(r.Context())
			logger.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(rl.requests) {
			metrics.RateLimitHits.WithLabelValues(rl.name).Inc()
			logger := logging.Ctx(r.Context())
			logger.Warn().
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Msg("rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeMsg(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
