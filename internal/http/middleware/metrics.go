// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation: generic HTTP traffic metrics
// plus domain counters for the cache tier chain. Labels are chosen to keep
// cardinality bounded: route paths (not raw URLs), status code strings, and
// the fixed tier names.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// cacheHits / cacheMisses count per-tier outcomes of the resolve chain.
	// The tier label is one of: memory, redis, db.
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_tier_hits_total",
			Help: "Cache hits by tier in the resolve chain.",
		},
		[]string{"tier"},
	)
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_tier_misses_total",
			Help: "Cache misses by tier in the resolve chain.",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, cacheHits, cacheMisses)
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// CacheTierMetrics implements the orchestrator's TierMetrics contract on the
// Prometheus counters above. The zero value is ready to use.
type CacheTierMetrics struct{}

// Hit records a hit for the named tier.
func (CacheTierMetrics) Hit(tier string) { cacheHits.WithLabelValues(tier).Inc() }

// Miss records a miss for the named tier.
func (CacheTierMetrics) Miss(tier string) { cacheMisses.WithLabelValues(tier).Inc() }
