package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/yourusername/oneup/internal/models"
)

const (
	defaultSimulations  = 30000
	defaultMatchMinutes = 95.0
)

// MonteCarlo estimates lead probabilities by simulating full matches:
// goal counts are Poisson draws, each goal lands at an independent
// uniform minute, and the running score difference is scanned for either
// side ever being strictly ahead. Scoreless simulations can pay neither
// side and count only toward the level outcome.
type MonteCarlo struct {
	sims         int
	matchMinutes float64
	seed         int64
}

// NewMonteCarlo creates the stochastic strategy. A non-positive
// simulation count is a construction bug, not a data condition, and
// panics. Seed zero draws a fresh time-based seed per estimate; a fixed
// seed makes every estimate reproducible.
func NewMonteCarlo(sims int, matchMinutes float64, seed int64) *MonteCarlo {
	if sims <= 0 {
		panic(fmt.Sprintf("monte carlo: simulation count must be positive, got %d", sims))
	}
	if matchMinutes <= 0 {
		matchMinutes = defaultMatchMinutes
	}
	return &MonteCarlo{sims: sims, matchMinutes: matchMinutes, seed: seed}
}

// Name identifies the strategy in records and metrics.
func (mc *MonteCarlo) Name() string { return MethodMonteCarlo }

// EverLead runs the batch of simulations. Goal-event buffers are reused
// across the whole batch, so a run allocates a constant amount regardless
// of the simulation count.
func (mc *MonteCarlo) EverLead(rateHome, rateAway float64) models.LeadProbabilities {
	seed := mc.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	times := make([]float64, 0, 32)
	signs := make([]int, 0, 32)

	var homeLeads, awayLeads, level int
	for i := 0; i < mc.sims; i++ {
		homeGoals := samplePoisson(rng, rateHome)
		awayGoals := samplePoisson(rng, rateAway)

		if homeGoals == awayGoals {
			level++
		}
		if homeGoals+awayGoals == 0 {
			continue
		}

		times = times[:0]
		signs = signs[:0]
		for g := 0; g < homeGoals; g++ {
			times = append(times, rng.Float64()*mc.matchMinutes)
			signs = append(signs, 1)
		}
		for g := 0; g < awayGoals; g++ {
			times = append(times, rng.Float64()*mc.matchMinutes)
			signs = append(signs, -1)
		}
		sortGoalEvents(times, signs)

		diff := 0
		homeLed, awayLed := false, false
		for _, s := range signs {
			diff += s
			if diff > 0 {
				homeLed = true
			} else if diff < 0 {
				awayLed = true
			}
			if homeLed && awayLed {
				break
			}
		}
		if homeLed {
			homeLeads++
		}
		if awayLed {
			awayLeads++
		}
	}

	n := float64(mc.sims)
	return models.LeadProbabilities{
		HomeLead:      float64(homeLeads) / n,
		AwayLead:      float64(awayLeads) / n,
		LevelFullTime: float64(level) / n,
	}
}

// sortGoalEvents orders the parallel time/sign arrays by time. Goal
// counts per match are tiny, so insertion sort beats the generic sort and
// allocates nothing.
func sortGoalEvents(times []float64, signs []int) {
	for j := 1; j < len(times); j++ {
		t, s := times[j], signs[j]
		k := j - 1
		for k >= 0 && times[k] > t {
			times[k+1] = times[k]
			signs[k+1] = signs[k]
			k--
		}
		times[k+1] = t
		signs[k+1] = s
	}
}
