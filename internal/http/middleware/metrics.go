// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels are
// kept bounded: "path" is the registered Gin route template, and requests
// that matched no route share the "unmatched" label so object URLs and
// scanners cannot blow up cardinality.
//
// Server-Sent Events streams live for minutes or hours. They are counted in
// their own gauge and histogram instead of skewing request latency.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// UnmatchedRoute labels requests that matched no registered route.
const UnmatchedRoute = "unmatched"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of non-streaming HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight non-streaming HTTP requests.",
		},
	)

	// Upload endpoints accept up to tens of MiB, so buckets reach 25MiB.
	httpReqSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "Size of HTTP request bodies in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 9), // 256B..16MiB
		},
		[]string{"method", "path"},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(128, 4, 9),
		},
		[]string{"method", "path"},
	)

	sseOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_sse_streams_open",
			Help: "Currently open Server-Sent Events streams by route.",
		},
		[]string{"path"},
	)

	sseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_sse_stream_duration_seconds",
			Help:    "Lifetime of Server-Sent Events streams.",
			Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 4 * 3600},
		},
		[]string{"path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpReqSize, httpRespSize, sseOpen, sseDuration)
}

// Metrics returns a middleware that records the collectors above.
//
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = UnmatchedRoute
		}
		method := c.Request.Method
		start := time.Now()

		if IsStreamPath(path) && method == "GET" {
			g := sseOpen.WithLabelValues(path)
			g.Inc()
			c.Next()
			g.Dec()
			sseDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
			httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
			return
		}

		httpInflight.Inc()
		c.Next()
		httpInflight.Dec()

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if n := c.Request.ContentLength; n > 0 {
			httpReqSize.WithLabelValues(method, path).Observe(float64(n))
		}
		// Size is -1 when nothing was written (204, 304).
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
