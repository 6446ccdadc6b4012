package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/backlog/internal/metrics"
)

// PrometheusMiddleware records HTTP request duration and count. The /metrics
// scrape itself is not recorded.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath() // route pattern, not actual path (avoids cardinality explosion)
		if path == "/metrics" {
			c.Next()
			return
		}

		if path == "" {
			path = "unmatched"
		}

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
