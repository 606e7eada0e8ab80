// Package metrics exposes Prometheus instrumentation for the query pipeline
// and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querychat_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querychat_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querychat_exchanges_total",
			Help: "Completed question/answer exchanges by outcome.",
		},
		[]string{"outcome"},
	)

	sqlAttemptsPerExchange = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querychat_sql_attempts_per_exchange",
			Help:    "SQL generate/execute/repair attempts taken per exchange.",
			Buckets: []float64{1, 2, 3},
		},
	)

	chartRecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querychat_chart_recommendations_total",
			Help: "Chart types recommended by the inference engine.",
		},
		[]string{"chart_type"},
	)

	sessionsConnectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querychat_sessions_connected_total",
			Help: "Total number of successful session database connections.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		exchangesTotal,
		sqlAttemptsPerExchange,
		chartRecommendationsTotal,
		sessionsConnectedTotal,
	)
}

// ObserveHTTPRequest records one handled HTTP request.
func ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}

// ObserveExchange records a completed exchange outcome ("success",
// "no_results", "execution_failed", "rejected") and its attempt count.
func ObserveExchange(outcome string, attempts int) {
	exchangesTotal.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		sqlAttemptsPerExchange.Observe(float64(attempts))
	}
}

// ObserveChartRecommendation counts one inference-engine recommendation.
func ObserveChartRecommendation(chartType string) {
	chartRecommendationsTotal.WithLabelValues(chartType).Inc()
}

// IncrementSessionConnected counts one successful session connect.
func IncrementSessionConnected() {
	sessionsConnectedTotal.Inc()
}
