package tuning

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oneup/internal/engine"
	"github.com/yourusername/oneup/internal/logger"
	"github.com/yourusername/oneup/internal/metrics"
)

// EngineSwapper is the sink for refreshed engines, satisfied by the
// pricing service
type EngineSwapper interface {
	Engine() *engine.Engine
	SwapEngine(next *engine.Engine, trigger string)
}

// Refresher rebuilds the engine calibration from fetched tuning params.
// Every failure degrades to whatever calibration is already live, which
// starts out as the builtin default; a refresh is never fatal.
type Refresher struct {
	source     ParamsSource
	swapper    EngineSwapper
	engineCfg  engine.Config
	family     string
	log        *logger.TuningLogger
	baseLogger *logrus.Logger

	mu                  sync.Mutex
	consecutiveFailures int
	activeVersion       string
}

// NewRefresher creates a refresher that feeds the swapper with engines
// rebuilt under the same engine config but fresh calibration params
func NewRefresher(source ParamsSource, swapper EngineSwapper, engineCfg engine.Config, family string, baseLogger *logrus.Logger) *Refresher {
	if baseLogger == nil {
		baseLogger = logrus.New()
	}

	return &Refresher{
		source:     source,
		swapper:    swapper,
		engineCfg:  engineCfg,
		family:     family,
		log:        logger.NewTuningLogger(baseLogger),
		baseLogger: baseLogger,
	}
}

// Refresh fetches the latest params and swaps the engine if the version
// changed. The returned error is informational; the live engine keeps
// serving either way.
func (r *Refresher) Refresh(ctx context.Context) error {
	params, err := r.source.GetParams(ctx, r.family)
	if err != nil {
		r.recordFailure(err)
		return err
	}

	r.mu.Lock()
	unchanged := params.Version == r.activeVersion && r.activeVersion != ""
	r.mu.Unlock()
	if unchanged {
		metrics.RecordCalibrationRefresh("unchanged")
		r.resetFailures()
		return nil
	}

	cal, err := engine.FromParams(*params)
	if err != nil {
		r.recordFailure(err)
		return err
	}

	cfg := r.engineCfg
	cfg.Calibration = cal.Name()
	next, err := engine.NewEngineWithCalibration(cfg, cal, r.baseLogger)
	if err != nil {
		r.recordFailure(err)
		return err
	}

	r.swapper.SwapEngine(next, "calibration_refresh")
	metrics.RecordCalibrationRefresh("applied")
	metrics.SetActiveCalibration(cal.Name())
	r.log.LogParamsApplied(params.Version, params.FittedAt, len(params.WeakerCurve)+len(params.StrongerCurve))

	r.mu.Lock()
	r.activeVersion = params.Version
	r.consecutiveFailures = 0
	r.mu.Unlock()

	return nil
}

// ActiveVersion returns the params version currently applied, empty until
// the first successful refresh
func (r *Refresher) ActiveVersion() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeVersion
}

func (r *Refresher) recordFailure(err error) {
	r.mu.Lock()
	r.consecutiveFailures++
	failures := r.consecutiveFailures
	r.mu.Unlock()

	metrics.RecordCalibrationRefresh("failed")
	r.log.LogRefreshFailure(err.Error(), failures, r.swapper.Engine().Version())
}

func (r *Refresher) resetFailures() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consecutiveFailures = 0
}
