package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV adapts the shared Redis client to the flat key-value operations the
// presence registry needs. It satisfies presence.KV.
type KV struct {
	client *redis.Client
}

// NewKV wraps the shared Redis client.
func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

// Get returns the value for key. ok is false when the key does not exist.
func (k *KV) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	val, err := k.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return val, true, nil
}

// SetPairWithTTL writes two keys with identical TTL in a single transactional
// pipeline; both writes succeed or the caller sees a failed pipeline.
func (k *KV) SetPairWithTTL(ctx context.Context, key1, value1, key2, value2 string, ttl time.Duration) error {
	pipe := k.client.TxPipeline()
	pipe.Set(ctx, key1, value1, ttl)
	pipe.Set(ctx, key2, value2, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline SET %s, %s: %w", key1, key2, err)
	}
	return nil
}

// Expire refreshes the TTL on key. ok is false when the key does not exist,
// which is the registry's signal to self-heal.
func (k *KV) Expire(ctx context.Context, key string, ttl time.Duration) (ok bool, err error) {
	set, err := k.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXPIRE %s: %w", key, err)
	}
	return set, nil
}

// Del removes the given keys. Missing keys are not an error.
func (k *KV) Del(ctx context.Context, keys ...string) error {
	if err := k.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis DEL %v: %w", keys, err)
	}
	return nil
}
