package redis

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

var rdb *redis.Client

func InitRedis(c Config) error {
	rdb = redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	return errors.Wrap(rdb.Ping(context.Background()).Err(), "redis ping")
}

// SetClient injects a client directly (tests, miniredis).
func SetClient(c *redis.Client) { rdb = c }

func GetClient() *redis.Client { return rdb }
