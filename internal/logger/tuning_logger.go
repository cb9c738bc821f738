// Package logger provides tuning-service logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// TuningLogger provides dedicated logging for calibration tuning operations.
type TuningLogger struct {
	*logrus.Entry
}

// NewTuningLogger creates a new tuning logger.
func NewTuningLogger(baseLogger *logrus.Logger) *TuningLogger {
	return &TuningLogger{
		Entry: baseLogger.WithField("component", "tuning"),
	}
}

// LogParamsFetch logs a calibration params request.
func (tl *TuningLogger) LogParamsFetch(version string, cacheHit bool, latencyMs float64) {
	tl.WithFields(logrus.Fields{
		"version":    version,
		"cache_hit":  cacheHit,
		"latency_ms": latencyMs,
	}).Info("Calibration params fetched")
}

// LogParamsApplied logs a calibration swap onto the live engine.
func (tl *TuningLogger) LogParamsApplied(version string, fittedAt time.Time, curveKnots int) {
	tl.WithFields(logrus.Fields{
		"version":     version,
		"fitted_at":   fittedAt.Unix(),
		"curve_knots": curveKnots,
	}).Info("Calibration params applied")
}

// LogRefreshFailure logs a failed refresh and the calibration kept in use.
func (tl *TuningLogger) LogRefreshFailure(reason string, consecutiveFailures int, keptVersion string) {
	tl.WithFields(logrus.Fields{
		"reason":               reason,
		"consecutive_failures": consecutiveFailures,
		"kept_version":         keptVersion,
	}).Error("Calibration refresh failed")
}

// LogCircuitBreakerEvent logs tuning client circuit breaker transitions.
func (tl *TuningLogger) LogCircuitBreakerEvent(eventType, reason string) {
	tl.WithFields(logrus.Fields{
		"event_type": eventType,
		"reason":     reason,
	}).Warn("Tuning client circuit breaker event")
}
