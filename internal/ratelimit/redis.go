package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Redis is a fixed-window limiter shared by every instance pointing at the
// same server. When Redis is unreachable it defers to Fallback.
type Redis struct {
	client   *redis.Client
	limit    int
	window   time.Duration
	prefix   string
	fallback Limiter
}

// NewRedis allows limit requests per key in each window.
func NewRedis(client *redis.Client, limit int, window time.Duration, fallback Limiter) *Redis {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Redis{
		client:   client,
		limit:    limit,
		window:   window,
		prefix:   "estate:rl:",
		fallback: fallback,
	}
}

func (l *Redis) Allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := windowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		slog.Warn("rate limit store unavailable", "error", err)
		if l.fallback != nil {
			return l.fallback.Allow(ctx, key)
		}
		return true
	}
	return count <= int64(l.limit)
}
