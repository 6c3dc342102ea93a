// Package metrics exposes Prometheus instrumentation for the HTTP API and
// the attempt lifecycle.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// AttemptsStarted counts Start outcomes by label (ok, limit, window, conflict, rejected, error).
	AttemptsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_attempts_started_total",
			Help: "Attempt start requests by outcome",
		},
		[]string{"outcome"},
	)

	// AttemptsSubmitted counts Submit outcomes by label (ok, already_submitted, invalid, rejected, error).
	AttemptsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_attempts_submitted_total",
			Help: "Attempt submit requests by outcome",
		},
		[]string{"outcome"},
	)

	StartConflictRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assessment_start_conflict_retries_total",
			Help: "Start inserts retried after losing the attempt-number race",
		},
	)

	ScorePercentage = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assessment_score_percentage",
			Help:    "Score percentage of submitted attempts",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	AttemptsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assessment_attempts_expired_total",
			Help: "Attempts moved to EXPIRED by the sweeper",
		},
	)
)

// Init registers all collectors. Call once during startup.
func Init() {
	prometheus.MustRegister(
		RequestCounter,
		RequestDuration,
		AttemptsStarted,
		AttemptsSubmitted,
		StartConflictRetries,
		ScorePercentage,
		AttemptsExpired,
	)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
