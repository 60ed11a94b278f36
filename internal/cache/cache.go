// Package cache holds recently computed reports keyed by input fingerprint.
package cache

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/buemura/contractlens/internal/fingerprint"
	"github.com/buemura/contractlens/pkg/types"
)

// unbounded stands in for "no limit"; the LRU rejects non-positive sizes.
const unbounded = math.MaxInt32

// Cache is a bounded, concurrency-safe LRU of reports. Stored reports are
// private copies and Get hands out clones, so an entry is never observed
// partially written or mutated after Put.
type Cache struct {
	lru *lru.Cache[fingerprint.Fingerprint, *types.Report]
}

// New creates a cache holding at most capacity reports. A capacity of zero
// or less means no limit.
func New(capacity int) *Cache {
	l, err := lru.New[fingerprint.Fingerprint, *types.Report](bound(capacity))
	if err != nil {
		panic(err)
	}
	return &Cache{lru: l}
}

func bound(capacity int) int {
	if capacity <= 0 {
		return unbounded
	}
	return capacity
}

// Get returns a copy of the report stored under key.
func (c *Cache) Get(key fingerprint.Fingerprint) (*types.Report, bool) {
	r, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Put stores a copy of report under key, replacing any previous entry and
// evicting the least recently used entry when full.
func (c *Cache) Put(key fingerprint.Fingerprint, report *types.Report) {
	if report == nil {
		return
	}
	c.lru.Add(key, report.Clone())
}

// Contains reports whether key is cached without touching recency.
func (c *Cache) Contains(key fingerprint.Fingerprint) bool {
	return c.lru.Contains(key)
}

// Len returns the number of cached reports.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Resize changes the capacity, evicting old entries if needed.
func (c *Cache) Resize(capacity int) {
	c.lru.Resize(bound(capacity))
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}
