package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "bulbfinder:progress:checkpoint"

// RedisBackend keeps the checkpoint under a single key; SET replaces it whole.
type RedisBackend struct {
	redisClient *redis.Client
	key         string
}

func NewRedisBackend(redisClient *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{
		redisClient: redisClient,
		key:         key,
	}
}

func (b *RedisBackend) Location() string {
	return "redis://" + b.redisClient.Options().Addr + "/" + b.key
}

func (b *RedisBackend) Read(ctx context.Context) ([]byte, error) {
	val, err := b.redisClient.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get checkpoint %s: %w", b.key, err)
	}
	return val, nil
}

func (b *RedisBackend) Write(ctx context.Context, data []byte) error {
	err := b.redisClient.Set(ctx, b.key, data, 0).Err() // No expiration
	if err != nil {
		return fmt.Errorf("failed to set checkpoint %s: %w", b.key, err)
	}
	return nil
}

func (b *RedisBackend) Remove(ctx context.Context) error {
	n, err := b.redisClient.Del(ctx, b.key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint %s: %w", b.key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
