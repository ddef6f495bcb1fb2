package middleware

import (
	"strconv"
	"time"

	"crowdmint-backend/internal/metrics"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics records request latency by route template
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
