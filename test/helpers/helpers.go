// Package helpers provides shared fixtures and infrastructure for the
// integration and end-to-end test suites.
package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oneup/internal/config"
	"github.com/yourusername/oneup/internal/database"
	"github.com/yourusername/oneup/internal/models"
)

// SetupTestDB creates a test database connection. Connection settings
// come from TEST_DB_* environment variables with local defaults.
func SetupTestDB(t *testing.T) *database.DB {
	t.Helper()

	port, err := strconv.Atoi(GetEnvOrDefault("TEST_DB_PORT", "5432"))
	require.NoError(t, err, "invalid TEST_DB_PORT")

	cfg := &config.DatabaseConfig{
		Host:               GetEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:               port,
		Name:               GetEnvOrDefault("TEST_DB_NAME", "oneup_test"),
		User:               GetEnvOrDefault("TEST_DB_USER", "test"),
		Password:           GetEnvOrDefault("TEST_DB_PASSWORD", "test"),
		SSLMode:            "disable",
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.NewDB(ctx, cfg)
	require.NoError(t, err, "failed to connect to test database")

	return db
}

// TeardownTestDB truncates the pricing tables and closes the connection.
func TeardownTestDB(t *testing.T, db *database.DB) {
	t.Helper()

	CleanupDatabase(t, db)
	db.Close()
}

// CleanupDatabase truncates all pricing tables.
func CleanupDatabase(t *testing.T, db *database.DB) {
	t.Helper()

	tables := []string{
		"price_records",
		"market_quotes",
		"market_snapshots",
		"events",
	}

	ctx := context.Background()
	for _, table := range tables {
		_, err := db.GetPool().Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Logf("Warning: failed to truncate table %s: %v", table, err)
		}
	}
}

// LoadFixture loads test data from a JSON fixture file.
func LoadFixture(t *testing.T, filename string, target interface{}) {
	t.Helper()

	fixturePath := filepath.Join("test", "fixtures", filename)
	data, err := os.ReadFile(fixturePath)
	require.NoError(t, err, "failed to read fixture file: %s", filename)

	err = json.Unmarshal(data, target)
	require.NoError(t, err, "failed to unmarshal fixture: %s", filename)
}

// PriceableMarketSet returns a market set with every family pricing
// needs: a home-leaning 1X2, three over/under ladders and a both-score
// quote.
func PriceableMarketSet() models.MarketSet {
	return models.MarketSet{
		MatchResult: &models.ThreeWayOdds{Home: 2.10, Draw: 3.40, Away: 3.50},
		TotalGoals: []models.OverUnderLine{
			{Line: 1.5, Over: 1.32, Under: 3.25},
			{Line: 2.5, Over: 1.95, Under: 1.85},
			{Line: 3.5, Over: 3.40, Under: 1.30},
		},
		HomeGoals: []models.OverUnderLine{
			{Line: 1.5, Over: 2.30, Under: 1.57},
		},
		AwayGoals: []models.OverUnderLine{
			{Line: 1.5, Over: 3.10, Under: 1.35},
		},
		BothScore: &models.TwoWayOdds{Yes: 1.95, No: 1.80},
	}
}

// NewTestEvent returns a scheduled event with a unique feed identifier.
func NewTestEvent() *models.Event {
	return &models.Event{
		ID:        uuid.New(),
		FeedID:    "feed-" + uuid.NewString(),
		League:    "Test League",
		HomeTeam:  "Home FC",
		AwayTeam:  "Away United",
		KickoffAt: time.Now().Add(2 * time.Hour).UTC(),
		Status:    "scheduled",
	}
}

// MockTuningServer creates a mock HTTP server for the calibration
// tuning service. It serves one fitted parameter set and counts
// requests.
func MockTuningServer(t *testing.T, version string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var requests atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calibrations/lead-by-one/latest":
			requests.Add(1)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"version": version,
				"weaker_curve": []map[string]float64{
					{"x": 1.15, "y": 1.0},
					{"x": 2.0, "y": 0.95},
					{"x": 4.0, "y": 0.85},
				},
				"stronger_curve": []map[string]float64{
					{"x": 1.15, "y": 1.0},
					{"x": 2.0, "y": 0.97},
					{"x": 4.0, "y": 0.91},
				},
				"fitted_at": time.Now().UTC().Format(time.RFC3339),
			})

		case "/health":
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	return httptest.NewServer(handler), &requests
}

// WaitForCondition waits for a condition to become true or times out.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	require.Fail(t, "condition not met within timeout", message)
}

// CreateTestContext creates a context with a timeout for testing.
func CreateTestContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)

	return ctx
}

// GetEnvOrDefault returns environment variable value or a default.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SkipIfShort skips test if running in short mode.
func SkipIfShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}
}
