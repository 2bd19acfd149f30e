package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

const defaultCleanupInterval = 10 * time.Minute

// cacheItem represents a single item in the cache with expiration
type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory cache with TTL support.
// Stored values are shared between readers and must not be mutated.
type MemoryCache[V any] struct {
	data  map[string]cacheItem[V]
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a cache that sweeps expired entries every
// cleanupInterval (10 minutes when zero)
func NewMemoryCache[V any](cleanupInterval time.Duration) *MemoryCache[V] {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}

	cache := &MemoryCache[V]{
		data: make(map[string]cacheItem[V]),
		stop: make(chan struct{}),
	}

	go cache.cleanupExpired(cleanupInterval)

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiration) {
		return zero, ErrCacheMiss
	}

	return item.value, nil
}

// Set stores a value in the cache with TTL
func (c *MemoryCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem[V]{
		value:      value,
		expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache[V]) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache[V]) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}

	return !time.Now().After(item.expiration), nil
}

// cleanupExpired removes expired entries until Close is called
func (c *MemoryCache[V]) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryCache[V]) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, item := range c.data {
		if now.After(item.expiration) {
			delete(c.data, key)
		}
	}
}

// Size returns the current number of items in the cache, expired or not
func (c *MemoryCache[V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem[V])
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *MemoryCache[V]) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
