package cache

import (
	"sync"
	"time"
)

// DefaultTTL is how long discovery results stay valid.
const DefaultTTL = 30 * time.Minute

type entry[V any] struct {
	value     V
	timestamp time.Time
}

// TTL is an in-memory key/value store with time-based expiry.
//
// An entry is valid while now - timestamp < ttl. Reads never touch the
// timestamp, so frequently read entries still expire on schedule. Expired
// entries are not evicted: they are shadowed until overwritten by [TTL.Set]
// or dropped by [TTL.Clear]. There is no size bound.
//
// A TTL is safe for concurrent use.
type TTL[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// TTLOption configures a [TTL] cache.
type TTLOption func(*ttlConfig)

type ttlConfig struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TTLOption {
	return func(c *ttlConfig) { c.now = now }
}

// NewTTL creates a cache whose entries live for ttl. A non-positive ttl
// falls back to [DefaultTTL].
func NewTTL[V any](ttl time.Duration, opts ...TTLOption) *TTL[V] {
	cfg := ttlConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTL[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     cfg.now,
	}
}

// Get returns the value stored under key if it exists and has not expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.timestamp) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, stamping it with the current time.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, timestamp: c.now()}
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the configured time-to-live.
func (c *TTL[V]) TTL() time.Duration { return c.ttl }
