package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupslot/groupslot/libs/config"
	"github.com/redis/go-redis/v9"
)

// FromConfig builds a client from REDIS_ADDR, REDIS_PASSWORD and REDIS_DB.
// It returns nil when REDIS_ADDR is unset.
func FromConfig() (*redis.Client, error) {
	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, nil
	}
	redisDB, err := config.Int("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	if redisDB < 0 {
		return nil, fmt.Errorf("REDIS_DB must be >= 0 (got %d)", redisDB)
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}), nil
}

func ReadyCheck(rdb redis.Cmdable) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
