package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/groupslot/groupslot/services/summary-service/internal/summary"
	"github.com/redis/go-redis/v9"
)

// KV is the slice of the Redis API the cache uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Cache stores rendered summaries as JSON under summary:<uuid>.
type Cache struct {
	kv  KV
	ttl time.Duration
}

func New(kv KV, ttl time.Duration) *Cache {
	return &Cache{kv: kv, ttl: ttl}
}

func key(scheduleUUID string) string {
	return "summary:" + scheduleUUID
}

func (c *Cache) Get(ctx context.Context, scheduleUUID string) (summary.Summary, bool, error) {
	raw, err := c.kv.Get(ctx, key(scheduleUUID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return summary.Summary{}, false, nil
	}
	if err != nil {
		return summary.Summary{}, false, err
	}
	var s summary.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return summary.Summary{}, false, err
	}
	return s, true, nil
}

func (c *Cache) Put(ctx context.Context, s summary.Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, key(s.ScheduleUUID), body, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, scheduleUUID string) error {
	return c.kv.Del(ctx, key(scheduleUUID)).Err()
}
