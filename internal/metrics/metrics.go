// Package metrics provides the centralized Prometheus metrics registry for
// the pricing service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PricesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oneup",
		Name:      "prices_written_total",
		Help:      "Total number of price records persisted",
	})
	DuplicatesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oneup",
		Name:      "duplicates_skipped_total",
		Help:      "Total number of pricing units skipped as already priced",
	})
	InsufficientDataTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oneup",
		Name:      "insufficient_data_total",
		Help:      "Total number of pricing units rejected for missing mandatory markets",
	})
	PricingFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oneup",
		Name:      "pricing_failures_total",
		Help:      "Total number of pricing units that failed with an error",
	})
	PricingRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oneup",
		Name:      "pricing_runs_total",
		Help:      "Total number of pricing runs executed",
	})
)

// Gauge metrics
var (
	PendingUnits = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oneup",
		Name:      "pending_units",
		Help:      "Number of unpriced units found by the latest run",
	})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oneup",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last completed pricing run",
	})
	ActiveWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oneup",
		Name:      "active_workers",
		Help:      "Number of pricing workers currently running",
	})
)

// Histogram metrics
var (
	PricingRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oneup",
		Name:      "pricing_run_duration_seconds",
		Help:      "Duration of whole pricing runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	UnitPricingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oneup",
		Name:      "unit_pricing_duration_seconds",
		Help:      "Duration of single-unit pricing in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	WriteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oneup",
		Name:      "write_duration_seconds",
		Help:      "Duration of price record writes in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PricesWrittenTotal)
		registry.MustRegister(DuplicatesSkippedTotal)
		registry.MustRegister(InsufficientDataTotal)
		registry.MustRegister(PricingFailuresTotal)
		registry.MustRegister(PricingRunsTotal)

		// Register gauge metrics
		registry.MustRegister(PendingUnits)
		registry.MustRegister(LastRunTimestamp)
		registry.MustRegister(ActiveWorkers)

		// Register histogram metrics
		registry.MustRegister(PricingRunDuration)
		registry.MustRegister(UnitPricingDuration)
		registry.MustRegister(WriteDuration)

		// Register tuning metrics
		registry.MustRegister(TuningFetchesTotal)
		registry.MustRegister(TuningFetchLatency)
		registry.MustRegister(TuningCircuitBreakerTripsTotal)
		registry.MustRegister(ActiveCalibrationInfo)
		registry.MustRegister(CalibrationRefreshesTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler. The engine registers its own
// series on the default registry, so both are gathered.
func Handler() http.Handler {
	gatherers := prometheus.Gatherers{GetRegistry(), prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// RecordPriceWritten records a persisted price record.
func RecordPriceWritten() {
	PricesWrittenTotal.Inc()
}

// RecordDuplicateSkipped records a unit skipped by duplicate suppression.
func RecordDuplicateSkipped() {
	DuplicatesSkippedTotal.Inc()
}

// RecordInsufficientData records a unit rejected for missing markets.
func RecordInsufficientData() {
	InsufficientDataTotal.Inc()
}

// RecordPricingFailure records a unit that failed with an error.
func RecordPricingFailure() {
	PricingFailuresTotal.Inc()
}

// RecordPricingRun records a completed pricing run.
func RecordPricingRun(durationSeconds float64) {
	PricingRunsTotal.Inc()
	PricingRunDuration.Observe(durationSeconds)
	LastRunTimestamp.SetToCurrentTime()
}

// RecordUnitPricing records single-unit pricing latency.
func RecordUnitPricing(durationSeconds float64) {
	UnitPricingDuration.Observe(durationSeconds)
}

// RecordWrite records price write latency.
func RecordWrite(durationSeconds float64) {
	WriteDuration.Observe(durationSeconds)
}

// UpdatePendingUnits updates the pending units gauge.
func UpdatePendingUnits(count float64) {
	PendingUnits.Set(count)
}

// UpdateActiveWorkers updates the active workers gauge.
func UpdateActiveWorkers(count float64) {
	ActiveWorkers.Set(count)
}
