package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taskboard/backend/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const visitorIdleTimeout = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client IP. Idle visitors are
// dropped on later requests.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	var visitors = make(map[string]*visitor)
	var mu sync.Mutex
	lastSweep := time.Now()

	getVisitor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastSweep) > visitorIdleTimeout {
			for key, v := range visitors {
				if now.Sub(v.lastSeen) > visitorIdleTimeout {
					delete(visitors, key)
				}
			}
			lastSweep = now
		}

		v, exists := visitors[ip]
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(r, b)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := getVisitor(ip)
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}

// PerMinute converts a requests-per-minute budget into a rate.Limit.
func PerMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}

// DistributedRateLimiter keeps a sliding window per key in Redis so every
// instance shares one budget. Redis failures fail open; repeated failures
// trip a breaker so requests stop waiting on a dead server.
type DistributedRateLimiter struct {
	redis   *redis.Client
	limits  map[string]*RateLimit
	breaker *cache.CircuitBreaker
}

type RateLimit struct {
	Rate    int
	Window  time.Duration
	KeyFunc func(*gin.Context) string
	OnLimit func(*gin.Context)
}

func NewDistributedRateLimiter(redisClient *redis.Client) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		redis:   redisClient,
		limits:  make(map[string]*RateLimit),
		breaker: cache.NewCircuitBreaker(cache.DefaultCircuitBreakerConfig()),
	}
}

func (rl *DistributedRateLimiter) CreateMiddleware(name string, limit *RateLimit) gin.HandlerFunc {
	rl.limits[name] = limit

	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", name, limit.KeyFunc(c))

		var allowed bool
		err := rl.breaker.Execute(func() error {
			var err error
			allowed, err = rl.checkLimit(c.Request.Context(), key, limit)
			return err
		})
		if err != nil {
			c.Header("X-RateLimit-Error", "true")
			c.Next()
			return
		}

		if !allowed {
			if limit.OnLimit != nil {
				limit.OnLimit(c)
				c.Abort()
				return
			}

			c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
			c.Header("X-RateLimit-Window", limit.Window.String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"message":     "Too many requests, please try again later",
				"retry_after": limit.Window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *DistributedRateLimiter) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"limits":          len(rl.limits),
		"circuit_breaker": rl.breaker.GetStats(),
	}
}

func (rl *DistributedRateLimiter) checkLimit(ctx context.Context, key string, limit *RateLimit) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - limit.Window.Nanoseconds()

	pipe := rl.redis.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	countCmd := pipe.ZCard(ctx, key)

	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})

	pipe.Expire(ctx, key, limit.Window)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	count := countCmd.Val()
	return count < int64(limit.Rate), nil
}

func IPKeyFunc(c *gin.Context) string {
	return c.ClientIP()
}

// UserKeyFunc keys by the authenticated user, or by IP before AuthRequired
// has run.
func UserKeyFunc(c *gin.Context) string {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return c.ClientIP()
	}
	return fmt.Sprintf("user:%v", userID)
}
