package engine

import (
	"math"

	"github.com/yourusername/oneup/internal/models"
)

// Truncation and numeric guards for the dynamic program.
const (
	defaultMaxGoals  = 15
	negligibleWeight = 1e-15
	probFloor        = 1e-9
)

// BarrierDP computes lead probabilities exactly by conditioning on the
// total goal count. Given n goals, the goal sequence is an n-step ±1
// random walk with up-probability equal to the home conditional share;
// an absorbing-barrier recursion gives the exact probability the walk
// ever reaches +1 (or -1). Results aggregate Poisson-weighted over n.
type BarrierDP struct {
	maxGoals int
}

// NewBarrierDP creates the exact strategy. maxGoals bounds the
// conditioning sum; mass beyond the default of fifteen goals is below the
// negligible-weight cutoff at any plausible soccer total.
func NewBarrierDP(maxGoals int) *BarrierDP {
	if maxGoals <= 0 {
		maxGoals = defaultMaxGoals
	}
	return &BarrierDP{maxGoals: maxGoals}
}

// Name identifies the strategy in records and metrics.
func (d *BarrierDP) Name() string { return MethodBarrierDP }

// EverLead runs the conditioned recursion for both barriers. The away
// side reuses the +1 recursion with the share mirrored.
func (d *BarrierDP) EverLead(rateHome, rateAway float64) models.LeadProbabilities {
	total := rateHome + rateAway
	share := 0.5
	if total > 0 {
		share = rateHome / total
	}

	var homeLead, awayLead, level float64
	for n := 0; n <= d.maxGoals; n++ {
		weight := poissonPMF(n, total)
		if weight < negligibleWeight {
			continue
		}

		homeLead += weight * hitProb(n, share)
		awayLead += weight * hitProb(n, 1-share)
		level += weight * levelProb(n, share)
	}

	return models.LeadProbabilities{
		HomeLead:      clamp(homeLead, probFloor, 1-probFloor),
		AwayLead:      clamp(awayLead, probFloor, 1-probFloor),
		LevelFullTime: clamp(level, probFloor, 1-probFloor),
	}
}

// hitProb returns the probability an n-step ±1 walk with up-probability p
// ever reaches +1. Unabsorbed mass lives on the differences [-n, 0];
// index i holds difference i-n, so the walk starts at index n. Each step
// either absorbs (an up move from difference zero) or shifts in range.
func hitProb(n int, p float64) float64 {
	if n == 0 {
		return 0
	}

	size := n + 1
	mass := make([]float64, size)
	next := make([]float64, size)
	mass[n] = 1.0

	absorbed := 0.0
	for step := 0; step < n; step++ {
		for i := range next {
			next[i] = 0
		}
		for i, m := range mass {
			if m < negligibleWeight {
				continue
			}

			// up move: absorbs from difference zero, shifts otherwise
			if i == n {
				absorbed += m * p
			} else {
				next[i+1] += m * p
			}

			// down move: a walk already at -n cannot go lower within the
			// remaining steps, so dropping that mass loses nothing
			if i > 0 {
				next[i-1] += m * (1 - p)
			}
		}
		mass, next = next, mass
	}
	return absorbed
}

// levelProb returns the probability an n-goal match ends level: zero for
// odd n, the central binomial term otherwise. A goalless match is level
// by definition.
func levelProb(n int, p float64) float64 {
	if n%2 != 0 {
		return 0
	}
	if n == 0 {
		return 1
	}
	if p <= 0 || p >= 1 {
		return 0
	}
	k := n / 2
	logTerm := logChoose(n, k) + float64(k)*math.Log(p) + float64(k)*math.Log(1-p)
	return math.Exp(logTerm)
}

func logChoose(n, k int) float64 {
	return logFactorial(n) - logFactorial(k) - logFactorial(n-k)
}
