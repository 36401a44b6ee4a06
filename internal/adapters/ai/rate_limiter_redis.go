package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tachi/pkg/errors"
)

// slideScript admits a call atomically: drop timestamps older than the
// window, count what remains, and record the new call only if under the
// limit. Returns {1} on admit, {0, msUntilSlot} on reject.
var slideScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)
if count < limit then
	local seq = redis.call('INCR', key .. ':seq')
	redis.call('ZADD', key, now, now .. '-' .. seq)
	redis.call('PEXPIRE', key, window)
	redis.call('PEXPIRE', key .. ':seq', window)
	return {1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {0, tonumber(oldest[2]) + window - now}
`)

// RedisLimiter is a sliding-window limiter backed by a Redis sorted set, so
// multiple instances of the service share one per-provider budget.
type RedisLimiter struct {
	rdb   *redis.Client
	key   string
	limit int
}

// NewRedisLimiter creates a distributed limiter for a provider. limit must be
// positive; use NoopLimiter for unlimited providers.
func NewRedisLimiter(rdb *redis.Client, provider ProviderName, limit int) *RedisLimiter {
	return &RedisLimiter{
		rdb:   rdb,
		key:   fmt.Sprintf("tachi:ratelimit:%s", provider),
		limit: limit,
	}
}

func (l *RedisLimiter) Limit() int { return l.limit }

// Acquire blocks until the shared window has room or ctx expires.
func (l *RedisLimiter) Acquire(ctx context.Context) error {
	for {
		now := time.Now().UnixMilli()
		res, err := slideScript.Run(ctx, l.rdb, []string{l.key},
			now, rateWindow.Milliseconds(), l.limit).Int64Slice()
		if err != nil {
			return errors.Wrap(errors.ErrTransient, "rate limit script failed: "+err.Error())
		}
		if len(res) == 2 && res[0] == 1 {
			return nil
		}

		wait := 50 * time.Millisecond
		if len(res) == 2 && res[1] > 0 {
			wait = time.Duration(res[1]) * time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrapf(errors.ErrRateLimited,
				"rate limit of %d req/min saturated: %v", l.limit, ctx.Err())
		case <-timer.C:
		}
	}
}
