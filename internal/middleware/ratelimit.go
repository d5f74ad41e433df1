package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter 由 repository/redis.RateLimiter 实现
type Limiter interface {
	Allow(ctx context.Context, key string, perMinute int) (bool, int, error)
}

// RateLimit 按 scope + 客户端 IP 限流；redis 出错时放行
func RateLimit(l Limiter, scope string, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || perMinute <= 0 {
			c.Next()
			return
		}
		key := scope + ":" + c.ClientIP()
		ok, retryAfter, err := l.Allow(c.Request.Context(), key, perMinute)
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"msg":         "too many requests, slow down",
				"error":       "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}
