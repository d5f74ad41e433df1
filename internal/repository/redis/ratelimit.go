package redis

import (
	"context"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter 按 key 做每分钟计数限流
type RateLimiter struct {
	limiter *redis_rate.Limiter
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{limiter: redis_rate.NewLimiter(rdb)}
}

// Allow 返回是否放行以及需要等待的秒数
func (l *RateLimiter) Allow(ctx context.Context, key string, perMinute int) (bool, int, error) {
	res, err := l.limiter.Allow(ctx, "rate:"+key, redis_rate.PerMinute(perMinute))
	if err != nil {
		return false, 0, err
	}
	return res.Allowed > 0, int(res.RetryAfter.Seconds() + 0.999), nil
}
