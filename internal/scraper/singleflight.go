package scraper

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// CacheWrapper collapses concurrent fetches of the same document into one
// network round-trip.
type CacheWrapper struct {
	group singleflight.Group
}

// NewCacheWrapper creates a new cache wrapper
func NewCacheWrapper() *CacheWrapper {
	return &CacheWrapper{}
}

// DoScrape executes fn once per key among concurrent callers. shared
// reports whether the result came from another caller's execution.
func DoScrape[T any](ctx context.Context, c *CacheWrapper, key string, fn func() (T, error)) (result T, shared bool, err error) {
	if err := ctx.Err(); err != nil {
		return result, false, err
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return result, shared, err
	}
	return v.(T), shared, nil
}
