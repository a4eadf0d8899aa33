package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userhub/internal/metrics"
	"userhub/internal/ratelimit"
)

func newLoginRouter(limiter *ratelimit.Limiter, cfg LoginLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	engine.POST("/login", RateLimitLogin(limiter, metrics.New(), cfg), func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.String(http.StatusOK, string(body))
	})
	return engine
}

func postLogin(engine *gin.Engine, ip, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.RemoteAddr = ip + ":5000"
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitLogin_RejectsOverLimit(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New()
	engine := newLoginRouter(limiter, LoginLimitConfig{Limit: 3, Window: time.Minute})
	body := `{"email":"a@example.com","password":"x"}`

	for i := 0; i < 3; i++ {
		rec := postLogin(engine, "10.1.1.1", body)
		assert.Equal(t, http.StatusOK, rec.Code, "attempt %d", i+1)
	}

	rec := postLogin(engine, "10.1.1.1", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var envelope struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Details struct {
				RetryIn int `json:"retry_in"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "RATE_LIMITED", envelope.Error.Code)
	assert.Positive(t, envelope.Error.Details.RetryIn)
	assert.LessOrEqual(t, envelope.Error.Details.RetryIn, 60)
}

func TestRateLimitLogin_IdentityIncludesEmail(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New()
	engine := newLoginRouter(limiter, LoginLimitConfig{Limit: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		rec := postLogin(engine, "10.2.2.2", `{"email":"first@example.com"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := postLogin(engine, "10.2.2.2", `{"email":"first@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Same IP, different email: separate window.
	rec = postLogin(engine, "10.2.2.2", `{"email":"second@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Same email, different IP: separate window.
	rec = postLogin(engine, "10.3.3.3", `{"email":"first@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitLogin_BodyRestoredForHandler(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New()
	engine := newLoginRouter(limiter, LoginLimitConfig{Limit: 10, Window: time.Minute})

	body := `{"email":"a@example.com","password":"pw"}`
	rec := postLogin(engine, "10.4.4.4", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, rec.Body.String())
}

func TestRateLimitLogin_NonJSONBodyFallsBackToIP(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New()
	engine := newLoginRouter(limiter, LoginLimitConfig{Limit: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		rec := postLogin(engine, "10.5.5.5", "not-json")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := postLogin(engine, "10.5.5.5", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postLogin(engine, "10.5.5.5", "still-not-json")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
