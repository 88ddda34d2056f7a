package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type MemoryCache struct {
	store sync.Map
	stop  chan struct{}
	once  sync.Once
}

type cacheItem struct {
	value      json.RawMessage
	expiration time.Time
}

// NewMemoryCache starts a janitor that drops expired entries every interval.
func NewMemoryCache(interval time.Duration) *MemoryCache {
	if interval <= 0 {
		interval = time.Minute
	}
	c := &MemoryCache{stop: make(chan struct{})}

	go c.cleanup(interval)

	return c
}

// Set stores an encoded snapshot of value, so later changes to value are
// not visible through the cache.
func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	c.store.Store(key, &cacheItem{
		value:      json.RawMessage(data),
		expiration: time.Now().Add(ttl),
	})
	return nil
}

// Get copies the cached value into dest.
func (c *MemoryCache) Get(key string, dest interface{}) error {
	value, ok := c.load(key)
	if !ok {
		return ErrCacheMiss
	}
	return copyValue(value, dest)
}

func (c *MemoryCache) load(key string) (json.RawMessage, bool) {
	item, exists := c.store.Load(key)
	if !exists {
		return nil, false
	}

	entry := item.(*cacheItem)
	if time.Now().After(entry.expiration) {
		c.store.Delete(key)
		return nil, false
	}

	return entry.value, true
}

func (c *MemoryCache) Exists(key string) (bool, error) {
	_, exists := c.load(key)
	return exists, nil
}

func (c *MemoryCache) Delete(key string) error {
	c.store.Delete(key)
	return nil
}

func (c *MemoryCache) DeletePattern(pattern string) error {
	c.store.Range(func(key, _ interface{}) bool {
		if matchPattern(key.(string), pattern) {
			c.store.Delete(key)
		}
		return true
	})
	return nil
}

func (c *MemoryCache) Stats() map[string]interface{} {
	count := 0
	c.store.Range(func(_, _ interface{}) bool {
		count++
		return true
	})

	return map[string]interface{}{
		"items": count,
		"type":  "memory",
	}
}

func (c *MemoryCache) Health() error {
	return nil
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.store.Range(func(key, value interface{}) bool {
				if now.After(value.(*cacheItem).expiration) {
					c.store.Delete(key)
				}
				return true
			})
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
