package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"channel-catalog/logger"
	"channel-catalog/utils/safemap"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a keyed value table with per-entry expiry. Expiry is checked
// lazily on access. At most one population per key runs at a time; callers
// racing on a missing or expired key all wait for that single population.
type Cache struct {
	entries *safemap.Map[string, entry]
	group   singleflight.Group
	now     func() time.Time
	logger  logger.Logger

	hits        atomic.Int64
	misses      atomic.Int64
	populations atomic.Int64
}

type Option func(*Cache)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: safemap.New[string, entry](),
		now:     time.Now,
		logger:  logger.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Stats struct {
	Entries     int   `json:"entries"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Populations int64 `json:"populations"`
}

func (c *Cache) Stats() Stats {
	return Stats{
		Entries:     c.entries.Len(),
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Populations: c.populations.Load(),
	}
}

// Invalidate drops key so the next read populates it again.
func (c *Cache) Invalidate(key string) {
	c.entries.Del(key)
}

// Prune drops expired entries and returns how many were removed. Expired
// entries are never served, so pruning only releases their memory.
func (c *Cache) Prune() int {
	now := c.now()
	return c.entries.DeleteFunc(func(_ string, e entry) bool {
		return !now.Before(e.expiresAt)
	})
}

func (c *Cache) fresh(key string) (any, bool) {
	e, ok := c.entries.Get(key)
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// load runs populate under the single-flight group for key. Unless force is
// set, the entry is checked again inside the flight so a caller that missed
// just as a previous flight finished does not populate twice.
func (c *Cache) load(ctx context.Context, key string, ttl time.Duration, populate func() (any, error), force bool) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		if !force {
			if v, ok := c.fresh(key); ok {
				return v, nil
			}
		}

		c.populations.Add(1)
		started := c.now()
		v, err := populate()
		if err != nil {
			c.logger.Warnf("Cache population for %s failed: %v", key, err)
			return nil, err
		}

		c.entries.Set(key, entry{value: v, expiresAt: c.now().Add(ttl)})
		c.logger.Debugf("Cache populated %s in %s", key, c.now().Sub(started))
		return v, nil
	})

	// The flight keeps running if the caller gives up.
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetOrPopulate returns the value stored under key if it has not expired.
// Otherwise it invokes populate, stores the result for ttl and returns it.
// Failed populations are not stored.
func GetOrPopulate[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, populate func() (T, error)) (T, error) {
	if v, ok := c.fresh(key); ok {
		c.hits.Add(1)
		return assertType[T](key, v)
	}
	c.misses.Add(1)

	v, err := c.load(ctx, key, ttl, func() (any, error) { return populate() }, false)
	if err != nil {
		var zero T
		return zero, err
	}
	return assertType[T](key, v)
}

// Refresh populates key regardless of its current state. The stored entry is
// only replaced when populate succeeds; readers keep the old value meanwhile.
func Refresh[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, populate func() (T, error)) (T, error) {
	v, err := c.load(ctx, key, ttl, func() (any, error) { return populate() }, true)
	if err != nil {
		var zero T
		return zero, err
	}
	return assertType[T](key, v)
}

func assertType[T any](key string, v any) (T, error) {
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %s holds %T, not %T", key, v, zero)
	}
	return typed, nil
}
