package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter counts requests per key in fixed windows
type Limiter interface {
	// Allow records one request for key and reports whether it is within the limit.
	// retryAfter is how long until the window resets.
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

// RateLimitConfig defines rate limit rules
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// RedisLimiter keeps counters in Redis so every instance shares one budget
type RedisLimiter struct {
	rdb    *redis.Client
	config RateLimitConfig
}

func NewRedisLimiter(rdb *redis.Client, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, config: config}
}

// Allow increments the key's counter and arms its expiry in one MULTI, so a
// counter can never be left without a window.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if rl == nil || rl.rdb == nil {
		return false, 0, fmt.Errorf("Redis client not available")
	}
	redisKey := "rate:generation:" + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, rl.config.Window)
		ttl = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to count request: %w", err)
	}
	return decide(incr.Val(), ttl.Val(), rl.config)
}

// decide applies the limit to a window count. ttl is what Redis reports for
// the counter; a negative ttl falls back to the full window.
func decide(count int64, ttl time.Duration, config RateLimitConfig) (bool, time.Duration, error) {
	if count <= int64(config.MaxRequests) {
		return true, 0, nil
	}
	if ttl <= 0 {
		ttl = config.Window
	}
	return false, ttl, nil
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the single-instance Limiter
type MemoryLimiter struct {
	config RateLimitConfig
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func NewMemoryLimiter(config RateLimitConfig) *MemoryLimiter {
	return &MemoryLimiter{config: config, now: time.Now, windows: make(map[string]*window)}
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	now := ml.now()
	w, ok := ml.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(ml.config.Window)}
		ml.windows[key] = w
		ml.prune(now)
	}
	w.count++
	if w.count <= ml.config.MaxRequests {
		return true, 0, nil
	}
	return false, w.resetAt.Sub(now), nil
}

// prune drops expired windows; caller holds mu
func (ml *MemoryLimiter) prune(now time.Time) {
	for k, w := range ml.windows {
		if !now.Before(w.resetAt) {
			delete(ml.windows, k)
		}
	}
}

// RateLimit rejects clients that exceed the limiter's budget with 429.
// Limiter errors let the request through.
func RateLimit(limiter Limiter, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warnw("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !ok {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many generation requests, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
