// cache/inmemory.go
package cache

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryCache is a generic, thread-safe, in-memory cache implementation.
// It satisfies the Cache interface. Entries never expire; they are only
// removed by Delete or Clear.
type InMemoryCache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// NewInMemoryCache creates a new in-memory cache.
func NewInMemoryCache[K comparable, V any]() *InMemoryCache[K, V] {
	return &InMemoryCache[K, V]{
		data: make(map[K]V),
	}
}

// Lookup returns the stored value and whether it was present.
func (c *InMemoryCache[K, V]) Lookup(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.data[key]
	return value, ok
}

// Store sets the value for key, replacing any previous entry.
func (c *InMemoryCache[K, V]) Store(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Delete removes key. Deleting an absent key is not an error.
func (c *InMemoryCache[K, V]) Delete(_ context.Context, key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Clear drops every entry.
func (c *InMemoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]V)
}

// Len reports the number of entries.
func (c *InMemoryCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// FetchFromCache retrieves an item from the cache.
func (c *InMemoryCache[K, V]) FetchFromCache(_ context.Context, key K) (V, error) {
	value, ok := c.Lookup(key)
	if !ok {
		var zero V
		return zero, fmt.Errorf("key '%v' not found in cache: %w", key, ErrCacheMiss)
	}
	return value, nil
}

// WriteToCache adds an item to the cache.
func (c *InMemoryCache[K, V]) WriteToCache(_ context.Context, key K, value V) error {
	c.Store(key, value)
	return nil
}
