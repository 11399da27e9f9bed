package cache

import (
	"context"
	"sync"
)

// Cache is a concurrency-safe map. The watcher registry is a Cache keyed by token address.
type Cache[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewCache[K comparable, V any](size int) *Cache[K, V] {
	return &Cache[K, V]{
		m: make(map[K]V, size),
	}
}

func (c *Cache[K, V]) Get(_ context.Context, k K) (V, bool) {
	c.mu.RLock()
	v, ok := c.m[k]
	c.mu.RUnlock()
	return v, ok
}

func (c *Cache[K, V]) Set(_ context.Context, k K, v V) {
	c.mu.Lock()
	c.m[k] = v
	c.mu.Unlock()
}

func (c *Cache[K, V]) Delete(_ context.Context, k K) {
	c.mu.Lock()
	delete(c.m, k)
	c.mu.Unlock()
}

// Values returns a snapshot of all values in no particular order.
func (c *Cache[K, V]) Values(_ context.Context) []V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]V, 0, len(c.m))
	for _, v := range c.m {
		res = append(res, v)
	}
	return res
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *Cache[K, V]) SetBatch(_ context.Context, items map[K]V) {
	c.mu.Lock()
	for k, v := range items {
		c.m[k] = v
	}
	c.mu.Unlock()
}
