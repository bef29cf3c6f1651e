package storage

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/yourname/sleeptoggle/internal"
)

// DefaultRedisHash is the hash the state keys are stored under.
const DefaultRedisHash = "sleeptoggle:state"

// RedisStateStore keeps the state keys as fields of one Redis hash.
type RedisStateStore struct {
	client *redis.Client
	hash   string
	logger internal.Logger
}

func NewRedisStateStore(ctx context.Context, addr, password string, db int, logger internal.Logger) (*RedisStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Errorf("failed to connect to redis at %s: %v", addr, err)
		_ = client.Close()
		return nil, err
	}
	return &RedisStateStore{client: client, hash: DefaultRedisHash, logger: logger}, nil
}

func (r *RedisStateStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.HGet(ctx, r.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Errorf("failed to read state key %s: %v", key, err)
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStateStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.HSet(ctx, r.hash, key, value).Err(); err != nil {
		r.logger.Errorf("failed to write state key %s: %v", key, err)
		return err
	}
	return nil
}

func (r *RedisStateStore) Delete(ctx context.Context, key string) error {
	if err := r.client.HDel(ctx, r.hash, key).Err(); err != nil {
		r.logger.Errorf("failed to delete state key %s: %v", key, err)
		return err
	}
	return nil
}

func (r *RedisStateStore) Close() error {
	return r.client.Close()
}

var _ StateStore = (*RedisStateStore)(nil)
