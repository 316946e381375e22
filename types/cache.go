package types

import (
	"errors"
	"time"
)

// ErrCacheMiss is returned by cache adapters when a key is absent or
// expired.
var ErrCacheMiss = errors.New("key not found in cache")

const (
	// DefaultCacheTTL is the default TTL for cached analytics results.
	// Trend reporting tolerates this much staleness.
	DefaultCacheTTL = 60 * time.Second
)

// CacheStats holds statistics about a cache adapter.
type CacheStats struct {
	Size        int       `json:"size"`
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	LastPurged  time.Time `json:"lastPurged"`
	LastAccess  time.Time `json:"lastAccess"`
	LastUpdated time.Time `json:"lastUpdated"`
}
