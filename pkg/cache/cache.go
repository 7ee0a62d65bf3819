// Package cache stores computed results between runs.
//
// Version matrices and realised manifests are pure functions of their
// inputs, so they are cached under content-addressed keys built by a
// [Keyer]: when the index changes, the key changes, and stale entries are
// simply never read again. Backends are interchangeable behind [Cache]:
//
//   - [FileCache]: a directory of JSON envelopes, the CLI default
//   - [RedisCache]: shared across machines building the same environments
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Default lifetimes for cached results.
const (
	TTLMatrix   = 7 * 24 * time.Hour
	TTLManifest = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key-value store with expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
