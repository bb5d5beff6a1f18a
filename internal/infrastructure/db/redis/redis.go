package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the reading-ingestion dedup keys only; the service stays up
// without it, so connectivity is verified once at startup and failures after
// that degrade rather than abort.

const defaultPingTimeout = 5 * time.Second

// Config carries the Redis connection settings.
type Config struct {
	Addr        string
	DB          int
	PingTimeout time.Duration
}

// Connect builds a Redis client and verifies it answers a ping before
// handing it out.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
