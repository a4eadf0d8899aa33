package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"userhub/internal/httpx"
)

// Recovery is the outermost error boundary: panics are logged with the
// request id and converted to a scrubbed INTERNAL_ERROR envelope.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("error", r).
					Str("request_id", c.Writer.Header().Get(requestIDHeader)).
					Msg("panic recovered")
				c.Abort()
				httpx.Error(c, http.StatusInternalServerError, httpx.CodeInternalError, "Unexpected server error")
			}
		}()
		c.Next()
	}
}
