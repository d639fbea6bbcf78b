// Package cache provides the two caching layers around subgraph resolution:
// a server-side TTL cache keyed by query signature and a client-side LRU for
// computed layouts. Neither layer is load-bearing for correctness — a miss
// only changes latency, never the result.
package cache

import (
	"sync"
	"time"

	"github.com/atlasops/blastradius/internal/graph"
)

// Defaults for the response cache.
const (
	DefaultResponseTTL    = 30 * time.Second
	defaultSweepThreshold = 64
)

type responseEntry struct {
	resp      *graph.Response
	expiresAt time.Time
}

// ResponseCache is a process-local TTL cache for resolved subgraphs, keyed
// by query hash. The time source is injectable so TTL behavior is testable.
//
// Concurrent requests for the same key are not single-flighted: both may
// compute redundantly, which is acceptable because resolution is cheap and
// idempotent.
type ResponseCache struct {
	mu             sync.Mutex
	ttl            time.Duration
	sweepThreshold int
	now            func() time.Time
	entries        map[string]responseEntry
}

// NewResponseCache creates a ResponseCache with the given TTL. Pass nil for
// now to use time.Now.
func NewResponseCache(ttl time.Duration, now func() time.Time) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultResponseTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ResponseCache{
		ttl:            ttl,
		sweepThreshold: defaultSweepThreshold,
		now:            now,
		entries:        make(map[string]responseEntry),
	}
}

// Get returns the cached response for key, or nil on a miss. Stale entries
// are evicted on read.
func (c *ResponseCache) Get(key string) *graph.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return entry.resp
}

// Set stores a response under key. Once the map grows past the sweep
// threshold every stale entry is dropped — amortized cleanup, no background
// timer.
func (c *ResponseCache) Set(key string, resp *graph.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) > c.sweepThreshold {
		now := c.now()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}

	c.entries[key] = responseEntry{
		resp:      resp,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len returns the number of entries currently held, stale or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
