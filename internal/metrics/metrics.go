package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

// Registry owns the process-wide counters and renders them in Prometheus
// exposition format on /metrics.
type Registry struct {
	registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	RateLimitHits prometheus.Counter
	Exports       *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "userhub_requests_total",
		Help: "Total HTTP requests by path, method and status.",
	}, []string{"path", "method", "status"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "userhub_request_duration_seconds",
		Help:    "HTTP request latency by path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	rateLimitHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "userhub_rate_limit_hits_total",
		Help: "Total requests rejected by the rate limiter.",
	})

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "userhub_exports_total",
		Help: "Total CSV exports by mode.",
	}, []string{"mode"})

	reg.MustRegister(
		requests,
		latency,
		rateLimitHits,
		exports,
		collectors.NewGoCollector(),
	)

	return &Registry{
		registry:      reg,
		Requests:      requests,
		Latency:       latency,
		RateLimitHits: rateLimitHits,
		Exports:       exports,
	}
}

func (r *Registry) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
