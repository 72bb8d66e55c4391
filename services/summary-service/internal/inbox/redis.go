package inbox

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetNXer is the one Redis call the inbox needs.
type SetNXer interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// Redis marks event ids as seen with SETNX; an id stays claimed for ttl.
type Redis struct {
	rdb    SetNXer
	prefix string
	ttl    time.Duration
}

func NewRedis(rdb SetNXer, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "inbox"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Record reports true the first time eventID is seen.
func (r *Redis) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	return r.rdb.SetNX(ctx, r.prefix+":"+eventID, eventType, r.ttl).Result()
}
