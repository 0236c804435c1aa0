package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"storefront/internal/infra/logger"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// keyごとに許可するかを判定する
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// 古いbucketを捨てる目安
const maxMemoryBuckets = 10000

// プロセス内のtoken bucket（IPごと）
type MemoryLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxMemoryBuckets {
			l.buckets = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.rps, l.burst)
		l.buckets[key] = lim
	}
	return lim.Allow(), nil
}

// 複数インスタンスで共有する固定ウィンドウ（INCR + EXPIRE）
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

// burst回/ウィンドウ。ウィンドウはburst/rps秒。
func NewRedisLimiter(rdb *redis.Client, rps float64, burst int) *RedisLimiter {
	window := time.Duration(float64(burst) / rps * float64(time.Second))
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{
		rdb:    rdb,
		limit:  int64(burst),
		window: window,
		prefix: "ratelimit:login:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}
	return n <= l.limit, nil
}

// IPごとに制限。limiterが落ちている時は通す。
func RateLimit(l Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ok, err := l.Allow(ctx, c.RealIP())
			if err != nil {
				logger.FromContext(ctx).Warn("ratelimit_unavailable", zap.Error(err))
				return next(c)
			}
			if !ok {
				return c.JSON(http.StatusTooManyRequests, errorJSON("TOO_MANY_REQUESTS", "too many requests"))
			}
			return next(c)
		}
	}
}
