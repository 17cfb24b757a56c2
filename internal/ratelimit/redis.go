package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares quota across processes. Each (identity, window) pair is
// one counter key, incremented and given a TTL in a single transaction.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisStore(client redis.Cmdable, prefix string, limit int, window time.Duration, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    now,
	}
}

func (s *RedisStore) Allow(ctx context.Context, identity string) (bool, error) {
	key := fmt.Sprintf("%s:%s:%d", s.prefix, identity, windowIndex(s.now(), s.window))

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.PExpire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("error incrementing quota for %s: %w", identity, err)
	}
	return incr.Val() <= int64(s.limit), nil
}
