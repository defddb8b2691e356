package storage

import (
	"fmt"

	"github.com/go-redis/redis"
	"github.com/redisctl/im-redis/pkg/config"
)

// NewRedis connects to the Redis instance the service keeps its own state in. This is not one of
// the deployed Redis nodes.
func NewRedis(c config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Password: "",
		DB:       0,
	})

	if _, err := client.Ping().Result(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %v", err)
	}

	return client, nil
}
