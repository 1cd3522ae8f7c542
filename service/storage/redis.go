package storage

import (
	"context"

	"GridSync/global"

	"github.com/redis/go-redis/v9"
)

var (
	rdb *redis.Client
	ctx = context.Background()
)

func InitRedis(c global.RedisConfig) error {
	rdb = redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	return rdb.Ping(ctx).Err()
}

// Enabled reports whether the redis mirror is wired. All callers treat
// a disabled mirror as a no-op (single-process mode).
func Enabled() bool { return rdb != nil }

// SetClient injects a client, for tests.
func SetClient(c *redis.Client) { rdb = c }
