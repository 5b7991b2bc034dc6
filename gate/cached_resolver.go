package gate

import (
	"context"
	"sync"
	"time"
)

// CachedResolver wraps a Resolver with TTL-based caching.
// This avoids hitting the database on every authorization check; callers must
// Invalidate a user whenever its roles or account state change.
type CachedResolver struct {
	inner Resolver
	cache map[uint]cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	principal *Principal
	expiresAt time.Time
}

// NewCachedResolver wraps a resolver with caching.
// ttl is how long principals are cached before re-fetching.
func NewCachedResolver(inner Resolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		inner: inner,
		cache: make(map[uint]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithNow replaces the time source, for tests.
func (r *CachedResolver) WithNow(now func() time.Time) *CachedResolver {
	r.now = now
	return r
}

// Resolve returns the principal for the given user, using cache if available.
// Unknown users are not cached.
func (r *CachedResolver) Resolve(ctx context.Context, userID uint) (*Principal, error) {
	r.mu.RLock()
	entry, ok := r.cache[userID]
	r.mu.RUnlock()

	if ok && r.now().Before(entry.expiresAt) {
		return entry.principal, nil
	}

	p, err := r.inner.Resolve(ctx, userID)
	if err != nil || p == nil {
		return p, err
	}

	r.mu.Lock()
	r.cache[userID] = cacheEntry{principal: p, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()

	return p, nil
}

// Invalidate removes a user from the cache.
func (r *CachedResolver) Invalidate(userID uint) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.mu.Unlock()
}
