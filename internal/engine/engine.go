package engine

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oneup/internal/models"
)

// Config carries every knob the pricing core needs. It is built once from
// application configuration and passed in by value; the engine keeps no
// process-wide state.
type Config struct {
	Method        string
	Simulations   int
	MatchMinutes  float64
	Seed          int64
	MaxGoals      int
	Minimizer     string
	Calibration   string
	Margins       Margins
	OddsPrecision int32
	Providers     ShareProviders
}

// DefaultConfig returns the production defaults: the exact strategy, the
// current calibration, a five percent margin.
func DefaultConfig() Config {
	return Config{
		Method:        MethodBarrierDP,
		Simulations:   defaultSimulations,
		MatchMinutes:  defaultMatchMinutes,
		MaxGoals:      defaultMaxGoals,
		Minimizer:     MinimizerGolden,
		Calibration:   CalibrationRatioV2,
		Margins:       Margins{Default: 0.05},
		OddsPrecision: defaultOddsPrecision,
		Providers:     DefaultShareProviders(),
	}
}

// Validate checks config parameters
func (c Config) Validate() error {
	switch c.Method {
	case MethodBarrierDP, MethodMonteCarlo, "":
	default:
		return fmt.Errorf("unknown lead strategy: %s", c.Method)
	}
	if c.Method == MethodMonteCarlo && c.Simulations <= 0 {
		return fmt.Errorf("simulation count must be positive")
	}
	if c.Margins.Default < 0 || c.Margins.Default >= 1 {
		return fmt.Errorf("default margin fraction must be in [0, 1)")
	}
	return nil
}

// Engine prices lead-by-one outcomes from a parsed market set. It is a
// pure function of its inputs plus the immutable strategy objects chosen
// at construction, so one engine serves concurrent callers.
type Engine struct {
	cfg         Config
	estimator   LeadEstimator
	calibration Calibration
	minimizer   Minimizer
	composer    *PriceComposer
	providers   ShareProviders
	version     string
	logger      *logrus.Logger
}

// NewEngine builds an engine with the builtin calibration named in the
// config.
func NewEngine(cfg Config, logger *logrus.Logger) (*Engine, error) {
	cal, err := NewCalibration(cfg.Calibration)
	if err != nil {
		return nil, err
	}
	return NewEngineWithCalibration(cfg, cal, logger)
}

// NewEngineWithCalibration builds an engine around an explicit
// calibration, typically one constructed from tuning-service params.
func NewEngineWithCalibration(cfg Config, cal Calibration, logger *logrus.Logger) (*Engine, error) {
	if cal == nil {
		return nil, fmt.Errorf("calibration is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	estimator, err := NewLeadEstimator(cfg)
	if err != nil {
		return nil, err
	}
	minimizer, err := NewMinimizer(cfg.Minimizer)
	if err != nil {
		return nil, err
	}
	providers := cfg.Providers
	if providers == nil {
		providers = DefaultShareProviders()
	}

	return &Engine{
		cfg:         cfg,
		estimator:   estimator,
		calibration: cal,
		minimizer:   minimizer,
		composer:    NewPriceComposer(cfg.OddsPrecision),
		providers:   providers,
		version:     estimator.Name() + "+" + cal.Name(),
		logger:      logger,
	}, nil
}

// Version identifies the engine for record keying: strategy plus
// calibration, so a retuned curve reprices instead of colliding with old
// records.
func (e *Engine) Version() string { return e.version }

// Method returns the active lead strategy name.
func (e *Engine) Method() string { return e.estimator.Name() }

// Price derives the lead-by-one price record for one market set. Only a
// missing or invalid mandatory market family fails the call; everything
// downstream degrades through fallbacks and clamps rather than aborting.
// The source tag is consumed solely by the first-scorer provider rule.
func (e *Engine) Price(set *models.MarketSet, source models.Bookmaker) (*models.PriceRecord, error) {
	start := time.Now()

	if !set.HasMandatoryMarkets() {
		calculationsTotal.WithLabelValues(e.estimator.Name(), "insufficient_data").Inc()
		return nil, models.ErrInsufficientData
	}

	pHomeWin, _, pAwayWin := RemoveVig3(set.MatchResult.Home, set.MatchResult.Draw, set.MatchResult.Away)

	// Raw side rates from the team ladders, the total independently.
	rawHome := FitRate(set.HomeGoals, e.minimizer)
	rawAway := FitRate(set.AwayGoals, e.minimizer)
	total, totalSource := e.fitTotal(set, pHomeWin, pAwayWin)

	propHome, _ := ProportionalSplit(total, rawHome, rawAway)
	propShare := propHome / total

	supremacy, supLoss := CalibrateSupremacy(total, *set.MatchResult, e.minimizer)
	rateHome, rateAway := SplitFromSupremacy(total, supremacy)

	share, shareSource, overridden := e.providers.Resolve(set, source)
	if overridden {
		rateHome = total * share
		rateAway = total * (1 - share)
	} else {
		share = rateHome / total
	}

	lead := e.estimator.EverLead(rateHome, rateAway)

	clamped := false
	pHomeRaw := lead.HomeLead
	if c := clampProb(pHomeRaw); c != pHomeRaw {
		pHomeRaw = c
		clamped = true
		degenerateClampTotal.WithLabelValues("home_lead").Inc()
	}
	pAwayRaw := lead.AwayLead
	if c := clampProb(pAwayRaw); c != pAwayRaw {
		pAwayRaw = c
		clamped = true
		degenerateClampTotal.WithLabelValues("away_lead").Inc()
	}

	pHome, pAway := e.calibration.Apply(pHomeRaw, pAwayRaw, rateHome, rateAway)

	homeQuote, err := e.composer.Compose(pHome, e.cfg.Margins.HomeFraction())
	if err != nil {
		calculationsTotal.WithLabelValues(e.estimator.Name(), "error").Inc()
		return nil, fmt.Errorf("failed to compose home price: %w", err)
	}
	awayQuote, err := e.composer.Compose(pAway, e.cfg.Margins.AwayFraction())
	if err != nil {
		calculationsTotal.WithLabelValues(e.estimator.Name(), "error").Inc()
		return nil, fmt.Errorf("failed to compose away price: %w", err)
	}

	record := &models.PriceRecord{
		EngineVersion: e.version,
		Source:        source,
		Rates:         models.RateEstimate{Home: rateHome, Away: rateAway, Total: total},
		RawHomeLead:   pHomeRaw,
		RawAwayLead:   pAwayRaw,
		HomeLead:      pHome,
		AwayLead:      pAway,
		LevelFullTime: lead.LevelFullTime,
		HomePrice:     homeQuote,
		AwayPrice:     awayQuote,
		DrawOdds:      set.MatchResult.Draw,
		Diagnostics: models.PriceDiagnostics{
			Supremacy:          supremacy,
			SupremacyLoss:      supLoss,
			HomeShare:          share,
			ShareSource:        shareSource,
			ProportionalShare:  propShare,
			CalibrationVersion: e.calibration.Name(),
			Method:             e.estimator.Name(),
			MarginApplied:      e.cfg.Margins.Default,
			TotalRateSource:    totalSource,
			Clamped:            clamped,
		},
		CreatedAt: time.Now().UTC(),
	}

	shareSourceTotal.WithLabelValues(shareSource).Inc()
	calculationsTotal.WithLabelValues(e.estimator.Name(), "priced").Inc()
	calculationDuration.WithLabelValues(e.estimator.Name()).Observe(time.Since(start).Seconds())

	e.logger.WithFields(logrus.Fields{
		"source":       source,
		"rate_home":    rateHome,
		"rate_away":    rateAway,
		"rate_total":   total,
		"share_source": shareSource,
		"home_lead":    pHome,
		"away_lead":    pAway,
	}).Debug("Priced lead-by-one market")

	return record, nil
}

// fitTotal prefers the match over/under ladder. A ladder with no usable
// line degrades to the both-teams-to-score solve; with nothing to anchor
// it, the fallback rate applies. The 1X2 supremacy approximation supplies
// the share the both-score model needs before any split exists.
func (e *Engine) fitTotal(set *models.MarketSet, pHomeWin, pAwayWin float64) (float64, string) {
	if usableLineCount(set.TotalGoals) > 0 {
		return FitRate(set.TotalGoals, e.minimizer), "total_ou"
	}
	if set.BothScore.IsValid() {
		shareEstimate := clamp(0.5+0.1*(pHomeWin-pAwayWin), 0.1, 0.9)
		return FitTotalFromBothScore(*set.BothScore, shareEstimate), "btts"
	}
	e.logger.Warn("No usable total-goals line and no both-score quote, using fallback rate")
	return fallbackRate, "fallback"
}
