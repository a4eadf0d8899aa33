package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"userhub/internal/metrics"
)

func Metrics(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		reg.Requests.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		reg.Latency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}
