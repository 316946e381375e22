package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// RedisAdapter implements the Cache interface on a shared Redis instance,
// adding key namespacing so multiple modules can share the database.
type RedisAdapter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisAdapter creates a Redis-backed cache adapter with an optional
// key prefix. If keyPrefix is empty, no prefixing is applied.
func NewRedisAdapter(client *redis.Client, keyPrefix string) *RedisAdapter {
	return &RedisAdapter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisAdapter) prefixedKey(key string) string {
	return r.keyPrefix + key
}

// Set stores a JSON-encoded value with a TTL.
func (r *RedisAdapter) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefixedKey(key), data, expiration).Err()
}

// Get retrieves a value into dest. Misses return types.ErrCacheMiss.
func (r *RedisAdapter) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, r.prefixedKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete removes a key.
func (r *RedisAdapter) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefixedKey(key)).Err()
}

// Keys returns all keys matching the pattern within the adapter's prefix.
// The returned keys include the prefix.
func (r *RedisAdapter) Keys(ctx context.Context, pattern string) ([]string, error) {
	return r.client.Keys(ctx, r.prefixedKey(pattern)).Result()
}

var _ interfaces.Cache = (*RedisAdapter)(nil)
