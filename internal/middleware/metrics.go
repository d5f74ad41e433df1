package middleware

import (
	"strconv"
	"time"

	"UFresher/internal/telemetry"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware path 标签使用路由模板，未匹配的请求统一记为 <no-route>
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
