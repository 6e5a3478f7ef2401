package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every key this service writes
const keyPrefix = "counsel:"

var ErrNotFound = errors.New("key not found in cache")

// RedisCache holds the short-lived counters and locks used to throttle
// logins and code sends
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects and pings the server
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

func key(k string) string { return keyPrefix + k }

// Hit increments the counter at k. The window starts with the first hit;
// later hits do not extend it.
func (r *RedisCache) Hit(ctx context.Context, k string, window time.Duration) (int64, error) {
	n, err := r.client.Incr(ctx, key(k)).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key(k), window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Lock marks k as locked for d
func (r *RedisCache) Lock(ctx context.Context, k string, d time.Duration) error {
	return r.client.Set(ctx, key(k), "1", d).Err()
}

// LockedFor returns how long k stays locked, or 0 when it is not locked
func (r *RedisCache) LockedFor(ctx context.Context, k string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, key(k)).Result()
	if err != nil {
		return 0, err
	}
	// -2: no key, -1: no expiry
	switch ttl {
	case -2:
		return 0, nil
	case -1:
		return time.Minute, nil
	}
	return ttl, nil
}

// Reserve sets k for d only if it is not already set, and reports whether
// it did
func (r *RedisCache) Reserve(ctx context.Context, k string, d time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key(k), "1", d).Result()
}

// Clear removes the given keys
func (r *RedisCache) Clear(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = key(k)
	}
	return r.client.Del(ctx, full...).Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
