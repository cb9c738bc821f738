package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevelParsing(t *testing.T) {
	log := NewLogger("debug")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger("not-a-level")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestPricingLoggerRunStarted(t *testing.T) {
	log, buf := setupTestLogger()
	pricingLogger := NewPricingLogger(log)

	pricingLogger.LogRunStarted("barrier-dp+ratio-v2", 120, 4)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "barrier-dp+ratio-v2", logEntry["engine_version"])
	assert.Equal(t, "pricing", logEntry["component"])
	assert.Equal(t, float64(120), logEntry["pending_units"])
}

func TestPricingLoggerRunCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	pricingLogger := NewPricingLogger(log)

	pricingLogger.LogRunCompleted("barrier-dp+ratio-v2", 95, 20, 5, 0, 830.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(95), logEntry["priced"])
	assert.Equal(t, float64(20), logEntry["duplicates"])
	assert.Equal(t, float64(5), logEntry["insufficient_data"])
}

func TestPricingLoggerUnitPriced(t *testing.T) {
	log, buf := setupTestLogger()
	pricingLogger := NewPricingLogger(log)

	pricingLogger.LogUnitPriced("evt_1", "snap_1", "pawa", "sporty_for_pawa", 2.45, 2.80)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "pawa", logEntry["source"])
	assert.Equal(t, "sporty_for_pawa", logEntry["share_source"])
	assert.Equal(t, 2.45, logEntry["home_odds"])
}

func TestPricingLoggerUnitSkipped(t *testing.T) {
	log, buf := setupTestLogger()
	pricingLogger := NewPricingLogger(log)

	pricingLogger.LogUnitSkipped("evt_1", "snap_1", "sporty", "insufficient_data")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "insufficient_data", logEntry["reason"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestTuningLoggerParamsFetch(t *testing.T) {
	log, buf := setupTestLogger()
	tuningLogger := NewTuningLogger(log)

	tuningLogger.LogParamsFetch("ratio-v2", true, 12.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ratio-v2", logEntry["version"])
	assert.Equal(t, true, logEntry["cache_hit"])
	assert.Equal(t, "tuning", logEntry["component"])
}

func TestTuningLoggerParamsApplied(t *testing.T) {
	log, buf := setupTestLogger()
	tuningLogger := NewTuningLogger(log)

	fittedAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	tuningLogger.LogParamsApplied("ratio-v3", fittedAt, 8)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ratio-v3", logEntry["version"])
	assert.Equal(t, float64(fittedAt.Unix()), logEntry["fitted_at"])
}

func TestTuningLoggerRefreshFailure(t *testing.T) {
	log, buf := setupTestLogger()
	tuningLogger := NewTuningLogger(log)

	tuningLogger.LogRefreshFailure("connection refused", 3, "ratio-v2")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(3), logEntry["consecutive_failures"])
	assert.Equal(t, "ratio-v2", logEntry["kept_version"])
}

func TestLoggerJSONFormat(t *testing.T) {
	log, buf := setupTestLogger()
	pricingLogger := NewPricingLogger(log)

	pricingLogger.LogUnitPriced("evt_1", "snap_1", "sporty", "sporty", 2.10, 3.15)

	// Verify output is valid JSON
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	assert.NoError(t, err)
	assert.NotEmpty(t, logEntry)
}

func BenchmarkPricingLoggerUnitPriced(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	pricingLogger := NewPricingLogger(log)

	for i := 0; i < b.N; i++ {
		pricingLogger.LogUnitPriced("evt_1", "snap_1", "sporty", "sporty", 2.10, 3.15)
	}
}
