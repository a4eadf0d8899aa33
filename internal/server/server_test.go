package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userhub/internal/config"
	"userhub/internal/handlers"
	"userhub/internal/metrics"
	"userhub/internal/ratelimit"
)

func testEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:  "test-secret",
			Issuer:     "userhub",
			AccessTTL:  10 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			LoginLimit:  10,
			LoginWindow: time.Minute,
		},
		Cache: config.CacheConfig{ListTTL: 30 * time.Second},
	}

	log := zerolog.Nop()
	reg := metrics.New()
	handlerSet := handlers.NewHandlerSet(log, nil, nil, ratelimit.New(), reg, cfg)
	return NewEngine(cfg, log, reg, handlerSet)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestEngine_HealthWithoutBackends(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	rec := serve(engine, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Status   string `json:"status"`
			Database string `json:"database"`
			Cache    string `json:"cache"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "ok", body.Data.Status)
	assert.Equal(t, "disabled", body.Data.Database)
	assert.Equal(t, "disabled", body.Data.Cache)
}

func TestEngine_NoRouteEnvelope(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	rec := serve(engine, http.MethodGet, "/does-not-exist")

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestEngine_ProtectedRouteRequiresAuth(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	rec := serve(engine, http.MethodGet, "/users/me")

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MISSING_AUTH_HEADER", body.Error.Code)
}

func TestEngine_RequestIDHeader(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	rec := serve(engine, http.MethodGet, "/health")

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestEngine_MetricsExposition(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	serve(engine, http.MethodGet, "/health")
	rec := serve(engine, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "userhub_requests_total")
}
