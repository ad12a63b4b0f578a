package main

import (
	"encoding/json"
	"sync"
	"time"
)

// ttlCache is a thread-safe string-keyed cache of serialized JSON
// payloads with lazy TTL expiry. The sync cache and the query cache
// are two instances of this type differing only in TTL and key
// granularity.
type ttlCache struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
	ttl  time.Duration
}

// cacheEntry holds a cached payload and the time it was stored,
// used for expiry and age reporting
type cacheEntry struct {
	value    json.RawMessage
	cachedAt time.Time
}

// newTTLCache creates an empty cache with the given time-to-live
func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
	}
}

// get retrieves a value only while it is fresh. Expired entries are
// treated as absent; use getStale for offline fallback reads.
// Returns a copy so callers cannot mutate the cached bytes.
func (c *ttlCache) get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, exists := c.data[key]
	if !exists || time.Since(cached.cachedAt) >= c.ttl {
		return nil, false
	}
	return append(json.RawMessage(nil), cached.value...), true
}

// getStale retrieves a value regardless of freshness, along with the
// time it was stored and whether it is past its TTL. Used by the
// query path when the upstream is unreachable.
func (c *ttlCache) getStale(key string) (json.RawMessage, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, exists := c.data[key]
	if !exists {
		return nil, time.Time{}, false
	}
	return append(json.RawMessage(nil), cached.value...), cached.cachedAt, true
}

// put stores a value stamped with the current time. Callers store
// upstream responses after the call completes, so the entry's age
// reflects completion time rather than request start.
func (c *ttlCache) put(key string, value json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cacheEntry{
		value:    append(json.RawMessage(nil), value...),
		cachedAt: time.Now(),
	}
}

// clearAll removes all cached entries (complete cache flush)
func (c *ttlCache) clearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheEntry)
}

// stats reports the entry count and average entry age in seconds
func (c *ttlCache) stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var totalAge float64
	now := time.Now()
	for _, cached := range c.data {
		totalAge += now.Sub(cached.cachedAt).Seconds()
	}

	avgAge := 0.0
	if len(c.data) > 0 {
		avgAge = totalAge / float64(len(c.data))
	}
	return CacheStats{
		Count:         len(c.data),
		TTLSeconds:    int(c.ttl.Seconds()),
		AvgAgeSeconds: avgAge,
	}
}
