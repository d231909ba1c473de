// Package cache provides the in-process TTL cache backing the read side.
// Each vibecast instance owns its cache; there is no shared cache tier, so
// invalidation only ever targets the local instance.
package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibecast_cache_hits_total",
		Help: "Cache hits per cache instance.",
	}, []string{"cache"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibecast_cache_misses_total",
		Help: "Cache misses per cache instance.",
	}, []string{"cache"})
	cacheEvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibecast_cache_evictions_total",
		Help: "Entries evicted or invalidated per cache instance.",
	}, []string{"cache"})
)

// TTLCache is an LRU cache with per-entry expiry. Values are serialized
// response payloads; callers own the encoding.
type TTLCache struct {
	name string
	lru  *expirable.LRU[string, []byte]
}

// New creates a cache holding up to maxEntries values for ttl each. The
// name labels the cache's metrics.
func New(name string, maxEntries int, ttl time.Duration) *TTLCache {
	return &TTLCache{
		name: name,
		lru:  expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
	}
}

// Get returns the cached payload and whether it was present.
func (c *TTLCache) Get(key string) ([]byte, bool) {
	val, ok := c.lru.Get(key)
	if ok {
		cacheHitsTotal.WithLabelValues(c.name).Inc()
		return val, true
	}
	cacheMissesTotal.WithLabelValues(c.name).Inc()
	return nil, false
}

// Set stores a payload under key.
func (c *TTLCache) Set(key string, value []byte) {
	c.lru.Add(key, value)
}

// Delete removes a single key.
func (c *TTLCache) Delete(key string) {
	if c.lru.Remove(key) {
		cacheEvictionsTotal.WithLabelValues(c.name).Inc()
	}
}

// DeletePrefix removes every key under the given namespace prefix. The
// cache holds at most maxEntries keys, so a linear scan is acceptable.
func (c *TTLCache) DeletePrefix(prefix string) int {
	removed := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			if c.lru.Remove(key) {
				removed++
			}
		}
	}
	if removed > 0 {
		cacheEvictionsTotal.WithLabelValues(c.name).Add(float64(removed))
	}
	return removed
}

// Len returns the current number of live entries.
func (c *TTLCache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *TTLCache) Purge() {
	c.lru.Purge()
}
