package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"userhub/internal/httpx"
	"userhub/internal/metrics"
	"userhub/internal/ratelimit"
)

type LoginLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimitLogin applies the fixed-window login limiter keyed by client IP
// plus the declared email. The body is consumed to read the email and
// restored for the handler.
func RateLimitLogin(limiter *ratelimit.Limiter, reg *metrics.Registry, cfg LoginLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP()

		rawBody, err := c.GetRawData()
		if err == nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(rawBody))

			var body struct {
				Email string `json:"email"`
			}
			if json.Unmarshal(rawBody, &body) == nil && body.Email != "" {
				identity = identity + ":" + body.Email
			}
		}

		ok, retryIn := limiter.Allow("login", identity, cfg.Limit, cfg.Window)
		if !ok {
			reg.RateLimitHits.Inc()
			c.Abort()
			httpx.ErrorDetails(c, http.StatusTooManyRequests, httpx.CodeRateLimited, "Too many requests",
				gin.H{"retry_in": retryIn})
			return
		}

		c.Next()
	}
}
