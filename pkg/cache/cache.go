package cache

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned (wrapped) by FetchFromCache when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a generic interface for a caching layer.
type Cache[K any, V any] interface {
	// FetchFromCache retrieves an item from the cache. A missing key yields an
	// error wrapping ErrCacheMiss.
	FetchFromCache(ctx context.Context, key K) (V, error)
	// WriteToCache adds an item to the cache.
	WriteToCache(ctx context.Context, key K, value V) error
}
