// Package rescache memoizes resolver outcomes per global identifier.
// Successful resolutions are cached for about an hour; failures are cached
// briefly so a dead upstream is not hammered while still self-healing.
// Concurrent requests for the same key share one in-flight resolution.
package rescache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"streamgate/internal/catalog"
	"streamgate/internal/metrics"
	"streamgate/internal/resolver"
)

const (
	// DefaultTTL bounds how long a resolved URL is trusted; upstream
	// links rotate on roughly this horizon.
	DefaultTTL = time.Hour

	// DefaultFailureTTL is deliberately short: transient upstream errors
	// self-heal without a thundering herd on expiry.
	DefaultFailureTTL = 90 * time.Second
)

// ResolveFunc performs one uncached resolution.
type ResolveFunc func(ctx context.Context, id catalog.GlobalID) (resolver.Result, error)

// Entry is one cached outcome. Entries are immutable; re-resolution after
// expiry replaces them wholesale.
type Entry struct {
	Result     resolver.Result
	Err        error
	ResolvedAt time.Time
	ExpiresAt  time.Time
}

func (e *Entry) fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Options configure a Cache.
type Options struct {
	TTL        time.Duration
	FailureTTL time.Duration
	Metrics    *metrics.Metrics // optional
}

// Cache is the resolution cache.
type Cache struct {
	resolve ResolveFunc
	ttl     time.Duration
	negTTL  time.Duration
	metrics *metrics.Metrics

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Entry
	epoch   int64 // bumped by Clear; stale flights must not re-insert

	hits        atomic.Int64
	misses      atomic.Int64
	resolutions atomic.Int64
	failures    atomic.Int64
}

// New creates a Cache around the given resolve function.
func New(resolve ResolveFunc, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.FailureTTL <= 0 {
		opts.FailureTTL = DefaultFailureTTL
	}
	return &Cache{
		resolve: resolve,
		ttl:     opts.TTL,
		negTTL:  opts.FailureTTL,
		metrics: opts.Metrics,
		entries: make(map[string]*Entry),
	}
}

// GetOrResolve returns the cached outcome for id, resolving at most once
// per key when the entry is missing or expired. A fresh negative entry
// re-raises the cached failure without touching the upstream.
func (c *Cache) GetOrResolve(ctx context.Context, id catalog.GlobalID) (resolver.Result, error) {
	key := id.String()
	if e, ok := c.lookup(key); ok {
		c.hits.Add(1)
		if c.metrics != nil {
			c.metrics.IncCacheHit()
		}
		return e.Result, e.Err
	}

	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.IncCacheMiss()
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		// A flight that completed while this caller queued already
		// stored a fresh entry.
		if e, ok := c.lookup(key); ok {
			return e, nil
		}
		return c.doResolve(ctx, id, key), nil
	})
	e := v.(*Entry)
	return e.Result, e.Err
}

// doResolve runs the resolver detached from the triggering caller: a
// caller abandoning its request must not cancel work that other waiters
// on the same key share. The resolver bounds its own attempts.
func (c *Cache) doResolve(ctx context.Context, id catalog.GlobalID, key string) *Entry {
	start := time.Now()
	c.mu.RLock()
	startEpoch := c.epoch
	c.mu.RUnlock()
	res, err := c.resolve(context.WithoutCancel(ctx), id)

	now := time.Now()
	e := &Entry{Result: res, Err: err, ResolvedAt: now}
	c.resolutions.Add(1)
	outcome := "resolved"
	if err != nil {
		c.failures.Add(1)
		outcome = "failed"
		e.ExpiresAt = now.Add(c.negTTL)
	} else {
		e.ExpiresAt = now.Add(c.ttl)
	}

	c.mu.Lock()
	// A Clear issued while this flight was running wins: callers still
	// get the result, but it is not re-inserted behind the purge.
	if c.epoch == startEpoch {
		c.entries[key] = e
	}
	n := len(c.entries)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ObserveResolve(outcome, now.Sub(start))
		c.metrics.SetCacheEntries(n)
	}
	return e
}

// Peek returns the fresh cached entry for id without resolving.
func (c *Cache) Peek(id catalog.GlobalID) (Entry, bool) {
	e, ok := c.lookup(id.String())
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (c *Cache) lookup(key string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !e.fresh(time.Now()) {
		return nil, false
	}
	return e, true
}

// Clear purges all entries, or only one site's when site is non-empty.
// Independent of TTL; returns the number of entries removed. In-flight
// resolutions that complete after the purge do not restore their entries.
func (c *Cache) Clear(site string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++

	removed := 0
	if site == "" {
		removed = len(c.entries)
		c.entries = make(map[string]*Entry)
	} else {
		prefix := site + ":"
		for key := range c.entries {
			if strings.HasPrefix(key, prefix) {
				delete(c.entries, key)
				removed++
			}
		}
	}
	if c.metrics != nil {
		c.metrics.SetCacheEntries(len(c.entries))
	}
	return removed
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Entries     int   `json:"entries"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Resolutions int64 `json:"resolutions"`
	Failures    int64 `json:"failures"`
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Entries:     n,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Resolutions: c.resolutions.Load(),
		Failures:    c.failures.Load(),
	}
}
