package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// MultiLevelCache fronts an optional Redis L2 with an in-process L1. L2
// failures degrade to L1-only service instead of failing the caller.
type MultiLevelCache struct {
	l1             *MemoryCache
	l2             *RedisCache
	l1TTL          time.Duration
	metrics        *CacheMetrics
	circuitBreaker *CircuitBreaker
}

// NewMultiLevelCache builds the cache; redisCache may be nil. l1TTL caps how
// long an entry promoted from L2 stays in memory.
func NewMultiLevelCache(redisCache *RedisCache, l1TTL time.Duration) *MultiLevelCache {
	if l1TTL <= 0 {
		l1TTL = 30 * time.Second
	}
	return &MultiLevelCache{
		l1:             NewMemoryCache(time.Minute),
		l2:             redisCache,
		l1TTL:          l1TTL,
		metrics:        NewCacheMetrics(),
		circuitBreaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
	}
}

func (c *MultiLevelCache) Set(key string, value interface{}, ttl time.Duration) error {
	c.l1.Set(key, value, minDuration(ttl, c.l1TTL))
	c.metrics.RecordSet()

	if c.l2 != nil {
		err := c.circuitBreaker.Execute(func() error {
			return c.l2.Set(key, value, ttl)
		})
		if err != nil {
			c.metrics.RecordError()
		}
	}

	return nil
}

func (c *MultiLevelCache) Get(key string, dest interface{}) error {
	if value, found := c.l1.load(key); found {
		c.metrics.RecordHit()
		return copyValue(value, dest)
	}

	if c.l2 != nil {
		err := c.circuitBreaker.Execute(func() error {
			return c.l2.Get(key, dest)
		})
		if err == nil {
			c.l1.Set(key, dest, c.l1TTL)
			c.metrics.RecordHit()
			return nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.metrics.RecordError()
		}
	}

	c.metrics.RecordMiss()
	return ErrCacheMiss
}

func (c *MultiLevelCache) Delete(key string) error {
	c.l1.Delete(key)
	c.metrics.RecordDelete()

	if c.l2 != nil {
		err := c.circuitBreaker.Execute(func() error {
			return c.l2.Delete(key)
		})
		if err != nil {
			c.metrics.RecordError()
		}
		return err
	}

	return nil
}

func (c *MultiLevelCache) DeletePattern(pattern string) error {
	c.l1.DeletePattern(pattern)
	c.metrics.RecordDelete()

	if c.l2 != nil {
		err := c.circuitBreaker.Execute(func() error {
			return c.l2.DeletePattern(pattern)
		})
		if err != nil {
			c.metrics.RecordError()
		}
		return err
	}

	return nil
}

func (c *MultiLevelCache) Exists(key string) (bool, error) {
	if _, found := c.l1.load(key); found {
		return true, nil
	}

	if c.l2 != nil {
		return c.l2.Exists(key)
	}

	return false, nil
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":               c.l1.Stats(),
		"metrics":          c.metrics.GetStats(),
		"hit_rate_percent": c.metrics.HitRate(),
		"circuit_breaker":  c.circuitBreaker.GetStats(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}

	return stats
}

func (c *MultiLevelCache) Health() error {
	if c.l2 != nil {
		return c.l2.Health()
	}

	return nil
}

func (c *MultiLevelCache) Close() error {
	c.l1.Close()

	if c.l2 != nil {
		return c.l2.Close()
	}

	return nil
}

func (c *MultiLevelCache) GetMetrics() *CacheMetrics {
	return c.metrics
}

func (c *MultiLevelCache) GetCircuitBreaker() *CircuitBreaker {
	return c.circuitBreaker
}

func minDuration(a, b time.Duration) time.Duration {
	if a > 0 && a < b {
		return a
	}
	return b
}

// copyValue deep-copies src into dest through JSON so callers never share
// memory with a cached entry.
func copyValue(src, dest interface{}) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		return fmt.Errorf("destination must be a pointer, got %T", dest)
	}

	if destValue.IsNil() {
		return fmt.Errorf("destination pointer is nil")
	}

	if !destValue.Elem().CanSet() {
		return fmt.Errorf("destination is not settable")
	}

	jsonData, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to marshal source value: %w", err)
	}

	if err := json.Unmarshal(jsonData, dest); err != nil {
		return fmt.Errorf("failed to unmarshal to destination: %w", err)
	}

	return nil
}
