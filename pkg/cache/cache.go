// Package cache provides the in-process TTL cache backing token
// metadata lookups. Tick sizes and minimum order sizes change rarely,
// so one fetch per token per day is plenty.
package cache

import "time"

// Cache is a TTL key-value cache.
type Cache interface {
	// Get retrieves a value. Returns (nil, false) when absent or expired.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL. Returns false if the write was
	// dropped by the admission policy.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value.
	Delete(key string)

	// Clear removes all values.
	Clear()

	// Close releases resources.
	Close()
}
