// Package cache provides the read-through result cache for the default
// product list query.
package cache

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

// defaultListKey is the single cache slot: only the default query (no
// filters, first page, default page size) is ever cached.
const defaultListKey = "products:list:default"

// Config holds the cache sizing and expiry settings.
type Config struct {
	// TTL is how long a cached default-query result stays servable.
	TTL time.Duration
	// Capacity bounds the number of entries sturdyc will hold. The cache
	// uses a single key, so anything >= 1 works.
	Capacity int
}

// ListCache is an in-process, single-slot cache for the serialized result of
// the default list query. Every write to the catalog must call Invalidate,
// regardless of which record changed.
type ListCache[T any] struct {
	client *sturdyc.Client[T]
}

// New constructs a ListCache. Zero config fields fall back to a 60 second
// TTL and a minimal capacity.
func New[T any](cfg Config) *ListCache[T] {
	if cfg.TTL <= 0 {
		cfg.TTL = 60 * time.Second
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 16
	}
	return &ListCache[T]{
		client: sturdyc.New[T](cfg.Capacity, 1, cfg.TTL, 10),
	}
}

// GetOrFetch returns the cached default-query result when present and
// unexpired; otherwise it runs fetch, stores the result, and returns it.
func (c *ListCache[T]) GetOrFetch(ctx context.Context, fetch func(ctx context.Context) (T, error)) (T, error) {
	return c.client.GetOrFetch(ctx, defaultListKey, fetch)
}

// Invalidate discards the cached entry. Deliberately coarse: a write to any
// record clears the whole slot so a stale page is never served after a write.
func (c *ListCache[T]) Invalidate() {
	c.client.Delete(defaultListKey)
}
