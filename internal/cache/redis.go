// Package cache provides Redis connection and cache-aside helpers.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"studybud/internal/middleware"
	"studybud/internal/observability"

	"github.com/redis/go-redis/v9"
)

type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RecordRedisError(cmd.Name())
		}
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RecordRedisError("pipeline")
		}
		return err
	}
}

// Connect builds a Redis client for addr (host:port or redis:// URL) and pings it.
// It returns nil when Redis is unreachable so callers can run without it.
func Connect(addr string) *redis.Client {
	if addr == "" {
		return nil
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			middleware.Logger.Warn("invalid REDIS_URL, continuing without redis", "error", err)
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without it", "error", err)
		_ = client.Close()
		return nil
	}
	middleware.Logger.Info("Redis connected successfully")
	return client
}
