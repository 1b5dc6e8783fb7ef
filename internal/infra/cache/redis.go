package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "storefront:catalog:"

type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCatalogCache(addr, password string, db int, ttl time.Duration, log *zap.Logger) (*RedisCatalogCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("redis connected", zap.String("addr", addr))

	return &RedisCatalogCache{client: rdb, ttl: ttl, log: log}, nil
}

func (r *RedisCatalogCache) Close() error {
	return r.client.Close()
}

// 見つからなければ false（Redis 障害もミス扱い）
func (r *RedisCatalogCache) Get(ctx context.Context, key string, dst any) bool {
	b, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		r.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		r.log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *RedisCatalogCache) Set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		r.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, keyPrefix+key, b, r.ttl).Err(); err != nil {
		r.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *RedisCatalogCache) Del(ctx context.Context, keys ...string) {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, keyPrefix+k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		r.log.Warn("cache del failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// REDIS_ADDR 未設定のとき
type NopCatalogCache struct{}

func (NopCatalogCache) Get(context.Context, string, any) bool { return false }
func (NopCatalogCache) Set(context.Context, string, any)      {}
func (NopCatalogCache) Del(context.Context, ...string)        {}
