// Package cache holds short-lived shared state for the watcher,
// chiefly the rate-limit blocklist consulted before channel fetches.
package cache

import (
	"time"
)

// CacheService is the storage contract behind Blocklist. Entries
// carry their own expiration so callers never have to clean up.
type CacheService interface {
	// Get retrieves a value, or an error when the key is absent
	Get(key string) ([]byte, error)

	// Set stores a value that expires after the given duration
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value before its expiration
	Delete(key string) error
}
