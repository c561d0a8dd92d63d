package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cinelog/internal/logging"
)

const pingTimeout = 3 * time.Second

// Connect parses a redis:// URL, opens a pooled client and pings it, so the
// server refuses to start against an unreachable Redis.
//
// URL format: redis://[:password@]host:port[/db]
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	l := logging.Component("redis")
	l.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected")
	return client, nil
}
