// Package engine metrics exported to Prometheus.
package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// calculationsTotal tracks pricing attempts by lead strategy and outcome
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oneup_engine_calculations_total",
			Help: "Total number of pricing calculations attempted",
		},
		[]string{"method", "outcome"}, // outcome: priced, insufficient_data, error
	)

	// calculationDuration tracks end-to-end pricing latency
	calculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oneup_engine_calculation_duration_seconds",
			Help:    "Pricing calculation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// optimizerFallbackTotal counts bounded-minimizer non-convergence events
	optimizerFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oneup_engine_optimizer_fallback_total",
			Help: "Total number of grid-search fallbacks after minimizer non-convergence",
		},
		[]string{"stage"}, // rate_fit, supremacy
	)

	// degenerateClampTotal counts values forced back to epsilon bounds
	degenerateClampTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oneup_engine_degenerate_clamp_total",
			Help: "Total number of degenerate numeric results clamped to valid bounds",
		},
		[]string{"quantity"},
	)

	// shareSourceTotal tracks which split source priced each unit
	shareSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oneup_engine_share_source_total",
			Help: "Total number of pricings by split source",
		},
		[]string{"source"},
	)
)
