package httpmiddleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow counts requests per key in fixed one-minute windows stored in
// redis, so every API replica draws from the same budget.
type RedisWindow struct {
	client *redis.Client
	prefix string
	limit  int64
	now    func() time.Time
}

// NewRedisWindow allows perMinute requests per key and minute. perMinute <= 0
// disables limiting.
func NewRedisWindow(client *redis.Client, prefix string, perMinute int) *RedisWindow {
	if prefix == "" {
		prefix = "attendance:ratelimit"
	}
	return &RedisWindow{client: client, prefix: prefix, limit: int64(perMinute), now: time.Now}
}

// Allow implements Limiter.
func (w *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	if w.limit <= 0 {
		return true, nil
	}
	windowKey := fmt.Sprintf("%s:%s:%d", w.prefix, key, w.now().Unix()/60)

	var count *redis.IntCmd
	_, err := w.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		count = p.Incr(ctx, windowKey)
		p.Expire(ctx, windowKey, 2*time.Minute)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis window: %w", err)
	}
	return count.Val() <= w.limit, nil
}
