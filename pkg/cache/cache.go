// Package cache provides the caches used by Forger.
//
// Two kinds of cache live here:
//
//   - [TTL]: a generic in-memory key/value store whose entries become invisible
//     once they are older than the configured time-to-live. Discovery results
//     (collection lists, icon lists, search results) are kept in a TTL cache.
//   - [Cache]: a byte-oriented cache with per-entry TTL and pluggable backends
//     ([FileCache], [RedisCache], [NullCache]). Vector sources fetched from the
//     catalog are kept in a Cache so they survive process restarts.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys.
type Cache interface {
	// Get returns the payload for key. The bool reports a hit; expired or
	// unreadable entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
