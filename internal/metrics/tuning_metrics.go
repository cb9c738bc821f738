// Package metrics defines tuning-service metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Tuning-specific counter vectors
var (
	TuningFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oneup",
		Name:      "tuning_fetches_total",
		Help:      "Total number of calibration params fetches by outcome",
	}, []string{"outcome"})

	CalibrationRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oneup",
		Name:      "calibration_refreshes_total",
		Help:      "Total number of calibration refresh attempts by outcome",
	}, []string{"outcome"})

	TuningCircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oneup",
		Name:      "tuning_circuit_breaker_trips_total",
		Help:      "Total number of tuning client circuit breaker trips",
	})
)

// Tuning-specific histograms
var (
	TuningFetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oneup",
		Name:      "tuning_fetch_latency_seconds",
		Help:      "Latency of calibration params fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// Tuning-specific gauge vectors
var (
	ActiveCalibrationInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "oneup",
		Name:      "active_calibration_info",
		Help:      "Set to 1 for the calibration version currently pricing",
	}, []string{"version"})
)

// RecordTuningFetch records a calibration params fetch.
func RecordTuningFetch(outcome string, latencySeconds float64) {
	TuningFetchesTotal.WithLabelValues(outcome).Inc()
	TuningFetchLatency.Observe(latencySeconds)
}

// RecordCalibrationRefresh records a refresh attempt outcome.
func RecordCalibrationRefresh(outcome string) {
	CalibrationRefreshesTotal.WithLabelValues(outcome).Inc()
}

// RecordTuningCircuitBreakerTrip records a circuit breaker trip.
func RecordTuningCircuitBreakerTrip() {
	TuningCircuitBreakerTripsTotal.Inc()
}

// SetActiveCalibration marks the given version as the one pricing now.
// Earlier versions are cleared so exactly one series reads 1.
func SetActiveCalibration(version string) {
	ActiveCalibrationInfo.Reset()
	ActiveCalibrationInfo.WithLabelValues(version).Set(1)
}
