package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gstyle/go-shop-backend/internal/domain"
)

// keyPrefix namespaces every key this service writes so the Redis instance
// can be shared with other applications.
const keyPrefix = "gstyle:"

// RedisCache is the shared tier: cross-instance, survives process restarts,
// entries expire server-side. Error policy is deliberately asymmetric —
// read errors degrade to a miss (fail open) and write errors are logged and
// swallowed, because a cache failure must never fail the user-facing request.
type RedisCache struct {
	cli       redis.UniversalClient
	namespace string
	ttl       time.Duration
}

// NewRedisCache wraps an existing client. namespace separates endpoint
// payload spaces (e.g. "search" vs "discounts") so the same normalized query
// can cache different payload shapes.
func NewRedisCache(cli redis.UniversalClient, namespace string, ttl time.Duration) *RedisCache {
	return &RedisCache{cli: cli, namespace: namespace, ttl: ttl}
}

// Get returns the cached payload for key, or (nil, false) on miss,
// store error, or undecodable payload.
func (r *RedisCache) Get(ctx context.Context, key string) (*domain.SearchResult, bool) {
	data, err := r.cli.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("redis get failed, treating as miss")
		}
		return nil, false
	}
	var payload domain.SearchResult
	if err := jsoniter.Unmarshal(data, &payload); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis payload undecodable, treating as miss")
		return nil, false
	}
	return &payload, true
}

// Set stores the payload with server-side expiry. Fire-and-forget: failures
// are logged, never propagated.
func (r *RedisCache) Set(ctx context.Context, key string, value *domain.SearchResult) {
	data, err := jsoniter.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis payload marshal failed")
		return
	}
	if err := r.cli.SetEx(ctx, r.redisKey(key), data, r.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// redisKey derives the namespaced store key for a normalized query. Hashing
// keeps keys short and charset-safe for arbitrary Persian/Turkish input while
// staying stable and collision-resistant across the whole system.
func (r *RedisCache) redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s%s:%x", keyPrefix, r.namespace, sum[:16])
}
