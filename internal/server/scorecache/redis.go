package scorecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/pup/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Redis stores entries as JSON values under prefix+pair with a TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration, logger logging.Logger) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl, logger: logger.With("module", "scorecache")}
}

func (r *Redis) Get(ctx context.Context, a, b string, va, vb time.Time) (int, bool) {
	key, lo, hi := pairKey(a, b, va, vb)

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn(ctx, "score cache get failed", "key", key, "error", err)
		}
		return 0, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		r.logger.Warn(ctx, "score cache entry corrupt", "key", key, "error", err)
		return 0, false
	}
	if !e.matches(lo, hi) {
		return 0, false
	}
	return e.Score, true
}

func (r *Redis) Set(ctx context.Context, a, b string, score int, va, vb time.Time) {
	key, lo, hi := pairKey(a, b, va, vb)

	data, err := json.Marshal(entry{Score: score, LoVersion: lo, HiVersion: hi})
	if err != nil {
		r.logger.Warn(ctx, "score cache marshal failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Warn(ctx, "score cache set failed", "key", key, "error", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, a, b string) {
	key, _, _ := pairKey(a, b, time.Time{}, time.Time{})

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logger.Warn(ctx, "score cache invalidate failed", "key", key, "error", err)
	}
}

// Ping checks if the Redis connection is healthy.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
