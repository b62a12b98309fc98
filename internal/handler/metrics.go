package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	domainsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagecrest_domains_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	domainsRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagecrest_domains_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	domainsResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagecrest_domains_resolve_total",
		Help: "Hostname resolutions by outcome (cache_hit, cache_negative, resolved, not_found, error).",
	}, []string{"outcome"})

	domainsRegistrarCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagecrest_domains_registrar_calls_total",
		Help: "Registrar API calls by operation and result.",
	}, []string{"op", "result"})
)

// PrometheusMiddleware records per-request counters and latency.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		domainsRequestsTotal.WithLabelValues(method, path, status).Inc()
		domainsRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordResolve records one resolution outcome. Wired into the resolver.
func RecordResolve(outcome string) {
	domainsResolveTotal.WithLabelValues(outcome).Inc()
}

// RecordRegistrarCall records one registrar API call. Wired into the
// registrar client.
func RecordRegistrarCall(op string, ok bool) {
	result := "error"
	if ok {
		result = "success"
	}
	domainsRegistrarCallsTotal.WithLabelValues(op, result).Inc()
}
