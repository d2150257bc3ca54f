package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greensiliconvalley/portal/pkg/metrics"
)

// Metrics records request latency metrics for each HTTP request. Requests
// that never matched a route share a single label so scanners hitting random
// paths cannot blow up series cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}
