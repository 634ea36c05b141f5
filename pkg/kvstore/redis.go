package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jfcardenas/storefront-core/pkg/config"
)

const keyNamespace = "sf"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisStore persists snapshots in Redis, for kiosk-style deployments where
// several terminals share one snapshot backend.
type RedisStore struct {
	store cmdable
	raw   *redis.Client
}

// OpenRedis bootstraps a Redis-backed snapshot store and verifies connectivity.
func OpenRedis(ctx context.Context, cfg config.StoreConfig) (*RedisStore, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if opts.DB == 0 {
		opts.DB = cfg.RedisDB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.RedisPool
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.RedisDial
	}

	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{store: raw, raw: raw}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.store.Get(ctx, r.buildKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.store.Set(ctx, r.buildKey(key), value, 0).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.store.Del(ctx, r.buildKey(key)).Err()
}

func (r *RedisStore) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}

func (r *RedisStore) buildKey(key string) string {
	return strings.Join([]string{keyNamespace, "snapshot", key}, ":")
}
