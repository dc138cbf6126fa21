package resolver

import (
	"context"
	"sync"

	"github.com/arloliu/resio/internal/types"
	"github.com/golang/groupcache/lru"
)

// CachedResolver memoizes the outcome of another resolver per location.
// Matches and non-matches are cached; failures are not.
//
// Cached handles are shared between callers, which is safe because
// resources are immutable handles. The cache key is the location only, so
// the wrapped resolver must not depend on which loader asks.
type CachedResolver struct {
	inner types.ProtocolResolver

	mu    sync.Mutex
	cache *lru.Cache
}

type cacheEntry struct {
	res types.Resource
	ok  bool
}

// NewCachedResolver wraps inner with an LRU cache holding up to size entries.
// A size <= 0 means no limit.
func NewCachedResolver(inner types.ProtocolResolver, size int) *CachedResolver {
	if size < 0 {
		size = 0
	}

	return &CachedResolver{inner: inner, cache: lru.New(size)}
}

// Resolve returns the cached outcome for location or asks the wrapped resolver.
func (r *CachedResolver) Resolve(ctx context.Context, location string, loader types.ResourceLoader) (types.Resource, bool, error) {
	r.mu.Lock()
	if v, ok := r.cache.Get(location); ok {
		r.mu.Unlock()
		e := v.(cacheEntry) //nolint:forcetypeassert // only cacheEntry values are stored

		return e.res, e.ok, nil
	}
	r.mu.Unlock()

	// The wrapped resolver may block; do not hold the lock across it.
	res, ok, err := r.inner.Resolve(ctx, location, loader)
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	r.cache.Add(location, cacheEntry{res: res, ok: ok})
	r.mu.Unlock()

	return res, ok, nil
}

// Len returns the number of cached entries.
func (r *CachedResolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cache.Len()
}

// Purge drops every cached entry.
func (r *CachedResolver) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Clear()
}
