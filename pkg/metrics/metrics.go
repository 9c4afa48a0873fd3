// Package metrics exposes the Prometheus instrumentation for the API
// and the rate refresh job.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agilewatch_http_requests_total",
			Help: "Total number of API requests per path and status code",
		},
		[]string{"path", "code"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agilewatch_http_request_duration_seconds",
			Help:    "API request duration in seconds per path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

// ObserveRequest records one completed API request.
func ObserveRequest(path string, code int, startedAt time.Time) {
	HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(path).Observe(time.Since(startedAt).Seconds())
}

var (
	RefreshLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agilewatch_refresh_last_run_timestamp",
			Help: "Unix timestamp of the last completed rate refresh",
		},
	)

	RefreshLastDurationSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agilewatch_refresh_last_duration_seconds",
			Help: "Duration of the last completed rate refresh",
		},
	)

	RefreshFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agilewatch_refresh_failures_total",
			Help: "Total number of failed rate refreshes",
		},
	)

	RatesChangedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agilewatch_rates_changed_total",
			Help: "Total number of refreshes that produced new or changed rates",
		},
	)

	DaysLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agilewatch_days_loaded",
			Help: "Number of distinct local days currently held",
		},
	)

	SlotsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agilewatch_slots_loaded",
			Help: "Number of half-hour slots currently held",
		},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agilewatch_ws_clients",
			Help: "Number of connected WebSocket clients",
		},
	)
)

// ObserveRefresh records one completed refresh run.
func ObserveRefresh(startedAt time.Time, err error) {
	RefreshLastDurationSeconds.Set(time.Since(startedAt).Seconds())
	RefreshLastRun.Set(float64(time.Now().Unix()))
	if err != nil {
		RefreshFailuresTotal.Inc()
	}
}
