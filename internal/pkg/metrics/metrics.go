package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cantina_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cantina_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cantina_api_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	// Domain Metrics
	StockMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cantina_stock_movements_total",
			Help: "Stock movements applied, by tipo",
		},
		[]string{"tipo"},
	)

	ReleasesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cantina_releases_created_total",
			Help: "Meal releases recorded",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cantina_login_attempts_total",
			Help: "Login attempts, by outcome",
		},
		[]string{"outcome"},
	)

	// Realtime Metrics
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cantina_realtime_clients",
			Help: "Connected realtime clients",
		},
	)

	RealtimeEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cantina_realtime_events_dropped_total",
			Help: "Realtime events dropped because the queue was full",
		},
	)
)

// RecordAPIRequest records an API request metric. route is the matched
// route template so that ids do not explode label cardinality.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordLogin counts a login attempt
func RecordLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	LoginAttempts.WithLabelValues(outcome).Inc()
}
