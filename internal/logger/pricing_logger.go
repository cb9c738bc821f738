// Package logger provides pricing run logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PricingLogger provides dedicated logging for pricing run operations.
type PricingLogger struct {
	*logrus.Entry
}

// NewPricingLogger creates a new pricing logger.
func NewPricingLogger(baseLogger *logrus.Logger) *PricingLogger {
	return &PricingLogger{
		Entry: baseLogger.WithField("component", "pricing"),
	}
}

// LogRunStarted logs the start of a pricing run.
func (pl *PricingLogger) LogRunStarted(engineVersion string, pendingUnits, workers int) {
	pl.WithFields(logrus.Fields{
		"engine_version": engineVersion,
		"pending_units":  pendingUnits,
		"workers":        workers,
	}).Info("Pricing run started")
}

// LogRunCompleted logs the outcome of a pricing run.
func (pl *PricingLogger) LogRunCompleted(engineVersion string, priced, duplicates, insufficient, failed int, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"engine_version":    engineVersion,
		"priced":            priced,
		"duplicates":        duplicates,
		"insufficient_data": insufficient,
		"failed":            failed,
		"duration_ms":       durationMs,
	}).Info("Pricing run completed")
}

// LogUnitPriced logs one composed price record.
func (pl *PricingLogger) LogUnitPriced(eventID, snapshotID, source, shareSource string, homeOdds, awayOdds float64) {
	pl.WithFields(logrus.Fields{
		"event_id":     eventID,
		"snapshot_id":  snapshotID,
		"source":       source,
		"share_source": shareSource,
		"home_odds":    homeOdds,
		"away_odds":    awayOdds,
	}).Info("Lead-by-one price composed")
}

// LogUnitSkipped logs a pricing unit that produced no record.
func (pl *PricingLogger) LogUnitSkipped(eventID, snapshotID, source, reason string) {
	pl.WithFields(logrus.Fields{
		"event_id":    eventID,
		"snapshot_id": snapshotID,
		"source":      source,
		"reason":      reason,
	}).Warn("Pricing unit skipped")
}

// LogEngineSwap logs an engine version change, typically after a
// calibration refresh.
func (pl *PricingLogger) LogEngineSwap(oldVersion, newVersion, trigger string) {
	pl.WithFields(logrus.Fields{
		"old_version": oldVersion,
		"new_version": newVersion,
		"trigger":     trigger,
	}).Info("Pricing engine version swapped")
}
