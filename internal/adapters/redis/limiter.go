package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// slidingWindow guarda un sorted set por clave con el timestamp de cada request.
var slidingWindow = goredis.NewScript(`
local key = KEYS[1]
local counter_key = KEYS[2]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)
if count < limit then
	local n = redis.call('INCR', counter_key)
	redis.call('ZADD', key, now, now .. ':' .. n)
	redis.call('PEXPIRE', key, window_ms)
	redis.call('PEXPIRE', counter_key, window_ms)
	return {1, 0}
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = 0
if #oldest >= 2 then
	retry = oldest[2] + window_ms - now
end
return {0, retry}
`)

// Limiter es un rate limiter de ventana deslizante compartido entre instancias.
type Limiter struct {
	client *goredis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewLimiter(client *goredis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()
	k := l.prefix + key
	res, err := slidingWindow.Run(ctx, l.client, []string{k, k + ":counter"},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(res) < 2 {
		return false, 0, fmt.Errorf("unexpected result length: %d", len(res))
	}
	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}
