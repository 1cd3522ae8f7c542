package storage

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// push subscription key: collab:push:<user>
// At most one endpoint per user; a new registration overwrites the old
// one (last write wins).
func pushKey(user string) string { return "collab:push:" + user }

func PushSubscribe(user, endpoint string) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, pushKey(user), endpoint, 0).Err()
}

func PushLookup(user string) (endpoint string, ok bool, err error) {
	if rdb == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, pushKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func PushUnsubscribe(user string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, pushKey(user)).Err()
}
