package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements CacheService on a redis client
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisCache creates a cache on the redis server at addr
func NewRedisCache(ctx context.Context, addr string, db int) *RedisCache {
	return NewRedisCacheFromClient(ctx, redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	}))
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(ctx context.Context, client *redis.Client) *RedisCache {
	return &RedisCache{client: client, ctx: ctx}
}

// Ping checks that the server answers
func (r *RedisCache) Ping() error {
	return r.client.Ping(r.ctx).Err()
}

// Get retrieves a value from redis
func (r *RedisCache) Get(key string) ([]byte, error) {
	value, err := r.client.Get(r.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return value, err
}

// Set stores a value with an expiration time
func (r *RedisCache) Set(key string, value []byte, expiration time.Duration) error {
	return r.client.Set(r.ctx, key, value, expiration).Err()
}

// Delete removes a value
func (r *RedisCache) Delete(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

// Close closes the redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
