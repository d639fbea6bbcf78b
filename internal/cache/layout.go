package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/atlasops/blastradius/internal/graph"
)

// DefaultLayoutCapacity is the default number of layouts kept client-side.
const DefaultLayoutCapacity = 20

// LayoutCache is a fixed-capacity LRU for computed layouts, keyed by query
// hash. Layout computation is pure, so an entry is valid until evicted —
// Get promotes to most-recently-used and Set evicts the least-recently-used
// entry when at capacity.
type LayoutCache struct {
	lru *lru.Cache[string, *graph.Layout]
}

// NewLayoutCache creates a LayoutCache holding up to capacity layouts.
func NewLayoutCache(capacity int) (*LayoutCache, error) {
	if capacity <= 0 {
		capacity = DefaultLayoutCapacity
	}
	inner, err := lru.New[string, *graph.Layout](capacity)
	if err != nil {
		return nil, err
	}
	return &LayoutCache{lru: inner}, nil
}

// Get returns the cached layout for queryHash and promotes it.
func (c *LayoutCache) Get(queryHash string) (*graph.Layout, bool) {
	return c.lru.Get(queryHash)
}

// Set stores a layout, evicting the least-recently-used entry if needed.
func (c *LayoutCache) Set(queryHash string, l *graph.Layout) {
	c.lru.Add(queryHash, l)
}

// Len returns the number of layouts currently cached.
func (c *LayoutCache) Len() int {
	return c.lru.Len()
}
