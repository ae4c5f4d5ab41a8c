package storage

import (
	"context"
	"fmt"
	"time"

	redisc "CityTalk/service/storage/redis"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Online status keys live in redis so the HTTP side (profile pages, member
// lists outside the gateway) can read them cheaply.
//
// status key: ct:online:<user>   value "1", TTL bounds staleness
// seen key:   ct:seen:<user>     unix seconds of last activity, no TTL

const onlineTTL = 2 * time.Hour

func onlineKey(user string) string { return "ct:online:" + user }
func seenKey(user string) string   { return "ct:seen:" + user }

// SetOnline marks the user online and refreshes last-seen.
func SetOnline(ctx context.Context, user string) error {
	rdb := redisc.GetClient()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	pipe := rdb.Pipeline()
	pipe.Set(ctx, onlineKey(user), "1", onlineTTL)
	pipe.Set(ctx, seenKey(user), time.Now().Unix(), 0)
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "set online")
}

// SetOffline clears the online flag and stamps last-seen.
func SetOffline(ctx context.Context, user string) error {
	rdb := redisc.GetClient()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	pipe := rdb.Pipeline()
	pipe.Del(ctx, onlineKey(user))
	pipe.Set(ctx, seenKey(user), time.Now().Unix(), 0)
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "set offline")
}

// IsOnline checks the online flag.
func IsOnline(ctx context.Context, user string) (bool, error) {
	rdb := redisc.GetClient()
	if rdb == nil {
		return false, fmt.Errorf("redis not initialized")
	}
	_, err := rdb.Get(ctx, onlineKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get online")
	}
	return true, nil
}

// LastSeen returns the stored last-seen time, zero if never stamped.
func LastSeen(ctx context.Context, user string) (time.Time, error) {
	rdb := redisc.GetClient()
	if rdb == nil {
		return time.Time{}, fmt.Errorf("redis not initialized")
	}
	sec, err := rdb.Get(ctx, seenKey(user)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.Wrap(err, "get last seen")
	}
	return time.Unix(sec, 0), nil
}
