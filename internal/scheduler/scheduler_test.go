package scheduler

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oneup/internal/service"
)

type fakePricingRunner struct{}

func (f *fakePricingRunner) RunOnce(ctx context.Context) (*service.RunSummary, error) {
	return service.NewRunSummary("barrier-dp+ratio-v2"), nil
}

type fakeRefresher struct{}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSchedulerLifecycle(t *testing.T) {
	s := NewScheduler(&fakePricingRunner{}, &fakeRefresher{}, quietLogger())

	require.NoError(t, s.SchedulePricingSweeps(60))
	require.NoError(t, s.ScheduleCalibrationRefresh("*/15 * * * *"))

	assert.False(t, s.IsRunning())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.False(t, s.GetNextRun().IsZero())

	// Job mutation is refused while running
	assert.Error(t, s.SchedulePricingSweeps(30))
	assert.Error(t, s.ScheduleCalibrationRefresh("@hourly"))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	// Stopping twice is a no-op
	assert.NoError(t, s.Stop())
}

func TestSchedulerRequiresJobs(t *testing.T) {
	s := NewScheduler(&fakePricingRunner{}, &fakeRefresher{}, quietLogger())
	assert.Error(t, s.Start())
}

func TestSchedulerEnforcesMinimumInterval(t *testing.T) {
	s := NewScheduler(&fakePricingRunner{}, &fakeRefresher{}, quietLogger())
	require.NoError(t, s.SchedulePricingSweeps(1))

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.Entries(), 1)
}

func TestSchedulerRejectsInvalidCron(t *testing.T) {
	s := NewScheduler(&fakePricingRunner{}, &fakeRefresher{}, quietLogger())
	assert.Error(t, s.ScheduleCalibrationRefresh("not a cron expression"))
}

func TestSchedulerRequiresDependencies(t *testing.T) {
	s := NewScheduler(nil, nil, quietLogger())
	assert.Error(t, s.SchedulePricingSweeps(60))
	assert.Error(t, s.ScheduleCalibrationRefresh("@hourly"))
}
