package engine

import (
	"fmt"

	"github.com/yourusername/oneup/internal/models"
)

// Lead strategy names accepted in configuration.
const (
	MethodMonteCarlo = "monte-carlo"
	MethodBarrierDP  = "barrier-dp"
)

// LeadEstimator computes the probability each side is ever strictly ahead,
// plus the full-time level probability, from a pair of scoring rates.
// Implementations are pure: no I/O, no shared mutable state, safe for
// concurrent use.
type LeadEstimator interface {
	Name() string
	EverLead(rateHome, rateAway float64) models.LeadProbabilities
}

// NewLeadEstimator builds the strategy selected by name.
func NewLeadEstimator(cfg Config) (LeadEstimator, error) {
	switch cfg.Method {
	case MethodBarrierDP, "":
		return NewBarrierDP(cfg.MaxGoals), nil
	case MethodMonteCarlo:
		return NewMonteCarlo(cfg.Simulations, cfg.MatchMinutes, cfg.Seed), nil
	default:
		return nil, fmt.Errorf("unknown lead strategy: %s", cfg.Method)
	}
}
