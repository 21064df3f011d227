package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
)

// RefreshFunc loads a fresh value.
type RefreshFunc[T any] func(ctx context.Context) (T, error)

// TTLCache holds one value together with the time it was fetched. It is
// eventually consistent: a failed refresh keeps serving the last value.
type TTLCache[T any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mu        sync.RWMutex
	data      T
	fetchedAt time.Time
	loaded    bool

	refreshMu sync.Mutex
}

func NewTTLCache[T any](name string, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{name: name, ttl: ttl, now: time.Now}
}

func (c *TTLCache[T]) fresh() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loaded && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.data, true
	}
	var zero T
	return zero, false
}

// Get returns the cached value and whether one was ever loaded, fresh or not.
func (c *TTLCache[T]) Get() (T, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, c.fetchedAt, c.loaded
}

// Set stores v as freshly fetched.
func (c *TTLCache[T]) Set(v T) {
	c.mu.Lock()
	c.data = v
	c.fetchedAt = c.now()
	c.loaded = true
	c.mu.Unlock()
}

// Invalidate forces the next GetOrRefresh to call refresh.
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// GetOrRefresh returns the cached value while it is younger than the TTL.
// Otherwise it calls refresh once, even under concurrent callers. When
// refresh fails the stale value is returned if there is one.
func (c *TTLCache[T]) GetOrRefresh(ctx context.Context, refresh RefreshFunc[T]) (T, error) {
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	v, err := refresh(ctx)
	if err == nil {
		c.Set(v)
		return v, nil
	}

	stale, fetchedAt, loaded := c.Get()
	if loaded {
		logger.Warn("Cache refresh failed, serving stale data", map[string]interface{}{
			"cache":      c.name,
			"fetched_at": fetchedAt,
			"error":      err.Error(),
		})
		return stale, nil
	}

	var zero T
	return zero, err
}
