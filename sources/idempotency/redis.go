package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "modelkiosk:idem:"

// RedisStore is the multi-instance backend. SET NX carries the same
// first-wins semantics the memory store implements with a mutex, and the TTL
// is enforced server-side.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (x *RedisStore) TryStart(ctx context.Context, key string) (bool, EntryStatus, error) {
	ok, err := x.client.SetNX(ctx, redisKeyPrefix+key, StatusStarted, x.ttl).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, StatusStarted, nil
	}

	status, err := x.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// Key expired between SETNX and GET; treat as a fresh start lost to
		// the race and let the caller retry.
		return false, StatusStarted, nil
	}
	if err != nil {
		return false, "", err
	}
	return false, status, nil
}

// Finish overwrites the value but keeps the remaining TTL.
func (x *RedisStore) Finish(ctx context.Context, key string, status EntryStatus) error {
	return x.client.SetXX(ctx, redisKeyPrefix+key, status, redis.KeepTTL).Err()
}

func (x *RedisStore) Get(ctx context.Context, key string) (EntryStatus, bool, error) {
	status, err := x.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}
