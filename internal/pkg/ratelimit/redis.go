package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/piresc/tripdispatch/internal/pkg/constants"
)

// windowScript applies the same count/window-start rule as WindowLimiter
// atomically inside Redis. Returns {allowed, count, window_start_ms}.
var windowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local start = tonumber(redis.call('HGET', KEYS[1], 'start') or '0')
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
if start == 0 or now - start > interval then
  start = now
  count = 0
end
if count >= max then
  return {0, count, start}
end
count = count + 1
redis.call('HSET', KEYS[1], 'start', start, 'count', count)
redis.call('PEXPIRE', KEYS[1], interval * 2)
return {1, count, start}
`)

// RedisLimiter shares windows across service instances
type RedisLimiter struct {
	client   *redis.Client
	resource string
	max      int
	interval time.Duration
	now      func() time.Time
}

// NewRedisLimiter creates a limiter whose keys are scoped by resource
func NewRedisLimiter(client *redis.Client, resource string, max int, interval time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		resource: resource,
		max:      max,
		interval: interval,
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := fmt.Sprintf(constants.KeyRateLimit, l.resource, key)
	res, err := windowScript.Run(ctx, l.client, []string{redisKey},
		l.now().UnixMilli(), l.interval.Milliseconds(), l.max).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply %v", res)
	}
	allowed, _ := values[0].(int64)
	count, _ := values[1].(int64)
	start, _ := values[2].(int64)

	d := Decision{
		Allowed: allowed == 1,
		Limit:   l.max,
		ResetAt: time.UnixMilli(start).Add(l.interval),
	}
	if d.Allowed {
		d.Remaining = l.max - int(count)
	}
	return d, nil
}
