package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cart-sync/internal/port"
)

const cartKeyPrefix = "cart:"

// RedisAdapter backs the durable cart slot. Values are written without
// a TTL: the slot lives until cleared externally.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) ReadRaw(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return data, nil
}

func (r *RedisAdapter) WriteRaw(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, cartKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Clear drops the slot. Used by seed tooling and tests.
func (r *RedisAdapter) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}
