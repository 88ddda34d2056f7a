package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

// RedisCache stores JSON-encoded values under a key prefix.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{
		client:  client,
		prefix:  prefix,
		timeout: 2 * time.Second,
	}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *RedisCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}

	ctx, cancel := c.context()
	defer cancel()

	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func (c *RedisCache) Get(key string, dest interface{}) error {
	ctx, cancel := c.context()
	defer cancel()

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode cache value for %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(key string) error {
	ctx, cancel := c.context()
	defer cancel()

	return c.client.Del(ctx, c.key(key)).Err()
}

// DeletePattern walks the keyspace with SCAN so large caches do not block
// the server the way KEYS would. Keys are deleted only after the scan
// completes; deleting mid-scan shifts offset-based cursors past live keys.
func (c *RedisCache) DeletePattern(pattern string) error {
	ctx, cancel := c.context()
	defer cancel()

	var matched []string
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.key(pattern), scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys for %s: %w", pattern, err)
		}
		matched = append(matched, keys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	for start := 0; start < len(matched); start += scanBatchSize {
		end := start + scanBatchSize
		if end > len(matched) {
			end = len(matched)
		}
		if err := c.client.Del(ctx, matched[start:end]...).Err(); err != nil {
			return fmt.Errorf("failed to delete keys for %s: %w", pattern, err)
		}
	}
	return nil
}

func (c *RedisCache) Exists(key string) (bool, error) {
	ctx, cancel := c.context()
	defer cancel()

	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) Stats() map[string]interface{} {
	pool := c.client.PoolStats()
	return map[string]interface{}{
		"type":        "redis",
		"hits":        pool.Hits,
		"misses":      pool.Misses,
		"timeouts":    pool.Timeouts,
		"total_conns": pool.TotalConns,
		"idle_conns":  pool.IdleConns,
		"stale_conns": pool.StaleConns,
	}
}

func (c *RedisCache) Health() error {
	ctx, cancel := c.context()
	defer cancel()

	return c.client.Ping(ctx).Err()
}

// Close is a no-op; the client is shared and closed by its owner.
func (c *RedisCache) Close() error {
	return nil
}
