package tuning

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oneup/internal/engine"
	"github.com/yourusername/oneup/internal/models"
)

const testFamily = "lead-by-one"

const validParamsJSON = `{
	"version": "ratio-v3",
	"weaker_curve": [{"x": 1.15, "y": 1.0}, {"x": 2.0, "y": 0.95}, {"x": 4.0, "y": 0.85}],
	"stronger_curve": [{"x": 1.15, "y": 1.0}, {"x": 2.0, "y": 0.97}, {"x": 4.0, "y": 0.91}],
	"fitted_at": "2026-08-20T12:00:00Z"
}`

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fastClientConfig(baseURL string) ClientConfig {
	cfg := DefaultClientConfig(baseURL)
	cfg.MaxRetries = 0
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 10
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestClientFetchesParams(t *testing.T) {
	var gotPath atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, validParamsJSON)
	}))
	defer server.Close()

	client, err := NewClient(fastClientConfig(server.URL), quietLogger())
	require.NoError(t, err)
	defer client.Close()

	params, err := client.GetParams(context.Background(), testFamily)
	require.NoError(t, err)

	assert.Equal(t, "ratio-v3", params.Version)
	assert.True(t, params.HasCurves())
	assert.Len(t, params.WeakerCurve, 3)
	assert.Equal(t, 0.95, params.WeakerCurve[1].Y)
	assert.Equal(t, "/calibrations/lead-by-one/latest", gotPath.Load())
}

func TestClientSendsAPIKeyHeader(t *testing.T) {
	var gotKey atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("X-API-Key"))
		fmt.Fprint(w, validParamsJSON)
	}))
	defer server.Close()

	cfg := fastClientConfig(server.URL)
	cfg.APIKey = "secret-key"
	client, err := NewClient(cfg, quietLogger())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetParams(context.Background(), testFamily)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", gotKey.Load())
}

func TestClientRejectsParamsWithoutCoefficients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version": "empty-v1"}`)
	}))
	defer server.Close()

	client, err := NewClient(fastClientConfig(server.URL), quietLogger())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetParams(context.Background(), testFamily)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestClientAcceptsLogitOnlyParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version": "logit-v2", "logit_a": 0.18, "logit_b": 1.16}`)
	}))
	defer server.Close()

	client, err := NewClient(fastClientConfig(server.URL), quietLogger())
	require.NoError(t, err)
	defer client.Close()

	params, err := client.GetParams(context.Background(), testFamily)
	require.NoError(t, err)
	assert.True(t, params.HasLogit())
	assert.False(t, params.HasCurves())
}

func TestClientCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := fastClientConfig(server.URL)
	cfg.FailureThreshold = 2
	cfg.Cooldown = time.Minute
	client, err := NewClient(cfg, quietLogger())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetParams(context.Background(), testFamily)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	_, err = client.GetParams(context.Background(), testFamily)
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	// Third call must be refused without reaching the server
	_, err = client.GetParams(context.Background(), testFamily)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), requests.Load())
}

func TestClientCircuitRecoversAfterCooldown(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, validParamsJSON)
	}))
	defer server.Close()

	cfg := fastClientConfig(server.URL)
	cfg.FailureThreshold = 1
	cfg.Cooldown = 50 * time.Millisecond
	client, err := NewClient(cfg, quietLogger())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetParams(context.Background(), testFamily)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	_, err = client.GetParams(context.Background(), testFamily)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	healthy.Store(true)
	time.Sleep(80 * time.Millisecond)

	params, err := client.GetParams(context.Background(), testFamily)
	require.NoError(t, err)
	assert.Equal(t, "ratio-v3", params.Version)

	// Breaker closed again: the next call goes straight through
	_, err = client.GetParams(context.Background(), testFamily)
	assert.NoError(t, err)
}

// countingSource records upstream calls for cache tests
type countingSource struct {
	mu     sync.Mutex
	calls  int
	params *models.CalibrationParams
	err    error
}

func (s *countingSource) GetParams(ctx context.Context, family string) (*models.CalibrationParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.params, nil
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func curveParams(version string) *models.CalibrationParams {
	return &models.CalibrationParams{
		Version: version,
		WeakerCurve: []models.CurvePoint{
			{X: 1.15, Y: 1.0}, {X: 2.0, Y: 0.95},
		},
		StrongerCurve: []models.CurvePoint{
			{X: 1.15, Y: 1.0}, {X: 2.0, Y: 0.97},
		},
		FittedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestCachedClientServesFromCache(t *testing.T) {
	source := &countingSource{params: curveParams("ratio-v3")}
	cached := NewCachedClient(source, time.Minute, quietLogger())

	first, err := cached.GetParams(context.Background(), testFamily)
	require.NoError(t, err)
	second, err := cached.GetParams(context.Background(), testFamily)
	require.NoError(t, err)

	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, 1, source.callCount())

	hits, misses, ratio := cached.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-9)
}

func TestCachedClientInvalidate(t *testing.T) {
	source := &countingSource{params: curveParams("ratio-v3")}
	cached := NewCachedClient(source, time.Minute, quietLogger())

	_, err := cached.GetParams(context.Background(), testFamily)
	require.NoError(t, err)

	cached.Invalidate(testFamily)

	_, err = cached.GetParams(context.Background(), testFamily)
	require.NoError(t, err)
	assert.Equal(t, 2, source.callCount())
}

func TestCachedClientDoesNotCacheFailures(t *testing.T) {
	source := &countingSource{err: ErrServiceUnavailable}
	cached := NewCachedClient(source, time.Minute, quietLogger())

	_, err := cached.GetParams(context.Background(), testFamily)
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	source.mu.Lock()
	source.err = nil
	source.params = curveParams("ratio-v3")
	source.mu.Unlock()

	params, err := cached.GetParams(context.Background(), testFamily)
	require.NoError(t, err)
	assert.Equal(t, "ratio-v3", params.Version)
	assert.Equal(t, 2, source.callCount())
}

// recordingSwapper wraps a real engine and counts swaps
type recordingSwapper struct {
	mu    sync.Mutex
	eng   *engine.Engine
	swaps int
}

func newRecordingSwapper(t *testing.T) *recordingSwapper {
	t.Helper()
	eng, err := engine.NewEngine(engine.DefaultConfig(), quietLogger())
	require.NoError(t, err)
	return &recordingSwapper{eng: eng}
}

func (s *recordingSwapper) Engine() *engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng
}

func (s *recordingSwapper) SwapEngine(next *engine.Engine, trigger string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eng = next
	s.swaps++
}

func (s *recordingSwapper) swapCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swaps
}

func TestRefresherSwapsEngineOnNewVersion(t *testing.T) {
	source := &countingSource{params: curveParams("ratio-v3")}
	swapper := newRecordingSwapper(t)
	oldVersion := swapper.Engine().Version()

	refresher := NewRefresher(source, swapper, engine.DefaultConfig(), testFamily, quietLogger())

	err := refresher.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, swapper.swapCount())
	assert.Equal(t, "ratio-v3", refresher.ActiveVersion())
	assert.NotEqual(t, oldVersion, swapper.Engine().Version())
	assert.Contains(t, swapper.Engine().Version(), "ratio-v3")
}

func TestRefresherSkipsUnchangedVersion(t *testing.T) {
	source := &countingSource{params: curveParams("ratio-v3")}
	swapper := newRecordingSwapper(t)
	refresher := NewRefresher(source, swapper, engine.DefaultConfig(), testFamily, quietLogger())

	require.NoError(t, refresher.Refresh(context.Background()))
	require.NoError(t, refresher.Refresh(context.Background()))

	assert.Equal(t, 1, swapper.swapCount())
}

func TestRefresherKeepsEngineOnFailure(t *testing.T) {
	source := &countingSource{err: ErrServiceUnavailable}
	swapper := newRecordingSwapper(t)
	oldVersion := swapper.Engine().Version()

	refresher := NewRefresher(source, swapper, engine.DefaultConfig(), testFamily, quietLogger())

	err := refresher.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, swapper.swapCount())
	assert.Equal(t, oldVersion, swapper.Engine().Version())
	assert.Equal(t, "", refresher.ActiveVersion())
}

func TestRefresherRejectsUnusableParams(t *testing.T) {
	source := &countingSource{params: &models.CalibrationParams{Version: "broken"}}
	swapper := newRecordingSwapper(t)
	refresher := NewRefresher(source, swapper, engine.DefaultConfig(), testFamily, quietLogger())

	err := refresher.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, swapper.swapCount())
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{}, quietLogger())
	assert.Error(t, err)
}
