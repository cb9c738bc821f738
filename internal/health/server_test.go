package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

type fakeVersioner struct {
	version string
}

func (f *fakeVersioner) EngineVersion() string {
	return f.version
}

type fakeScheduler struct {
	running bool
	next    time.Time
}

func (f *fakeScheduler) IsRunning() bool       { return f.running }
func (f *fakeScheduler) GetNextRun() time.Time { return f.next }

func newTestServer(db DatabasePinger, sched SchedulerInfo) *Server {
	return NewServer(Config{
		ServiceName: "oneup-pricer",
		Version:     "test",
		Port:        "0",
		DB:          db,
		Engine:      &fakeVersioner{version: "barrier-dp+ratio-v2"},
		Scheduler:   sched,
	})
}

func TestHealthEndpointReportsEngine(t *testing.T) {
	s := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "oneup-pricer", resp.Service)
	assert.Equal(t, "barrier-dp+ratio-v2", resp.Engine)
}

func TestReadyEndpointHealthy(t *testing.T) {
	s := newTestServer(&fakePinger{}, &fakeScheduler{running: true, next: time.Now().Add(time.Minute)})
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["service"])
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "barrier-dp+ratio-v2", resp.Checks["engine"])
	assert.Contains(t, resp.Checks["scheduler"], "ok")
}

func TestReadyEndpointDatabaseDown(t *testing.T) {
	s := newTestServer(&fakePinger{err: errors.New("connection refused")}, &fakeScheduler{running: true})
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Contains(t, resp.Checks["database"], "connection refused")
}

func TestReadyEndpointSchedulerStopped(t *testing.T) {
	s := newTestServer(&fakePinger{}, &fakeScheduler{running: false})
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "stopped", resp.Checks["scheduler"])
}

func TestReadyEndpointNotReadyUntilMarked(t *testing.T) {
	s := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
