// Package storage provides cache adapters for analytics result caching.
package storage

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// MemoryAdapter implements the Cache interface with an in-process TTL map.
// Used when no Redis address is configured.
type MemoryAdapter struct {
	mu     sync.RWMutex
	data   map[string][]byte
	ttl    map[string]time.Time
	stats  types.CacheStats
	done   chan struct{}
	logger zerolog.Logger
}

// NewMemoryAdapter creates a new in-memory cache adapter and starts its
// background eviction routine.
func NewMemoryAdapter() *MemoryAdapter {
	a := &MemoryAdapter{
		data:   make(map[string][]byte),
		ttl:    make(map[string]time.Time),
		done:   make(chan struct{}),
		logger: log.With().Str("component", "memory_cache").Logger(),
	}
	go a.evictionLoop()
	return a
}

func (a *MemoryAdapter) evictionLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.evictExpired()
		case <-a.done:
			return
		}
	}
}

func (a *MemoryAdapter) evictExpired() {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	var expired int
	for key, expiry := range a.ttl {
		if now.After(expiry) {
			delete(a.data, key)
			delete(a.ttl, key)
			expired++
		}
	}
	if expired > 0 {
		a.stats.Size = len(a.data)
		a.stats.LastPurged = now
		a.logger.Debug().
			Int("expired_count", expired).
			Msg("Expired cache entries cleaned up")
	}
}

// Set stores a JSON-encoded value with a TTL.
func (a *MemoryAdapter) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.data[key] = data
	if expiration > 0 {
		a.ttl[key] = time.Now().UTC().Add(expiration)
	} else {
		delete(a.ttl, key)
	}
	a.stats.Size = len(a.data)
	a.stats.LastUpdated = time.Now().UTC()
	return nil
}

// Get retrieves a value into dest. Misses and expired entries return
// types.ErrCacheMiss.
func (a *MemoryAdapter) Get(ctx context.Context, key string, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.LastAccess = time.Now().UTC()

	data, ok := a.data[key]
	if !ok {
		a.stats.Misses++
		return types.ErrCacheMiss
	}
	if expiry, hasTTL := a.ttl[key]; hasTTL && time.Now().UTC().After(expiry) {
		delete(a.data, key)
		delete(a.ttl, key)
		a.stats.Size = len(a.data)
		a.stats.Misses++
		return types.ErrCacheMiss
	}
	a.stats.Hits++
	return json.Unmarshal(data, dest)
}

// Delete removes a key.
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.data, key)
	delete(a.ttl, key)
	a.stats.Size = len(a.data)
	return nil
}

// Keys returns all keys matching the glob pattern.
func (a *MemoryAdapter) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	var keys []string
	for key := range a.data {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// GetStats returns adapter statistics.
func (a *MemoryAdapter) GetStats() types.CacheStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// Shutdown stops the eviction routine and drops all entries.
func (a *MemoryAdapter) Shutdown() {
	close(a.done)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = make(map[string][]byte)
	a.ttl = make(map[string]time.Time)
	a.stats.Size = 0
}

var _ interfaces.Cache = (*MemoryAdapter)(nil)
