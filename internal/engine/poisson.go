package engine

import (
	"math"
	"math/rand"
)

// resultGoalGrid bounds the per-side goal grid used when converting a rate
// pair into match-result probabilities. Mass beyond ten goals a side is
// negligible at soccer rates.
const resultGoalGrid = 10

// poissonPMF returns P(N = k) for N ~ Poisson(lambda), computed in log
// space so large counts stay finite.
func poissonPMF(k int, lambda float64) float64 {
	if lambda <= 0 {
		if k == 0 {
			return 1.0
		}
		return 0.0
	}
	logP := float64(k)*math.Log(lambda) - lambda - logFactorial(k)
	return math.Exp(logP)
}

// poissonCDF returns P(N <= k) by term accumulation.
func poissonCDF(k int, lambda float64) float64 {
	if k < 0 {
		return 0.0
	}
	term := math.Exp(-lambda)
	sum := term
	for i := 1; i <= k; i++ {
		term *= lambda / float64(i)
		sum += term
	}
	return sum
}

// poissonTail returns P(N >= threshold).
func poissonTail(threshold int, lambda float64) float64 {
	if threshold <= 0 {
		return 1.0
	}
	return 1.0 - poissonCDF(threshold-1, lambda)
}

// overProb returns P(goals > line) under Poisson(lambda). Quarter lines
// collapse to the nearest half line before the integer threshold is taken,
// so 2.25 and 2.5 share the "three or more" tail.
func overProb(lambda, line float64) float64 {
	adj := math.Round(line*2) / 2
	threshold := int(math.Floor(adj)) + 1
	return poissonTail(threshold, lambda)
}

// samplePoisson draws a Poisson count using Knuth's multiplication
// algorithm. Expected work grows with lambda, which is fine for the rate
// window pricing operates in.
func samplePoisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for p > limit {
		k++
		p *= rng.Float64()
	}
	return k - 1
}

// matchResultProbs converts a rate pair into win/draw/loss probabilities
// by summing the independent-Poisson score grid, normalized so the three
// outcomes cover the truncated grid exactly.
func matchResultProbs(rateHome, rateAway float64) (float64, float64, float64) {
	pH := make([]float64, resultGoalGrid+1)
	pA := make([]float64, resultGoalGrid+1)
	for i := 0; i <= resultGoalGrid; i++ {
		pH[i] = poissonPMF(i, rateHome)
		pA[i] = poissonPMF(i, rateAway)
	}

	var home, draw, away float64
	for h := 0; h <= resultGoalGrid; h++ {
		for a := 0; a <= resultGoalGrid; a++ {
			p := pH[h] * pA[a]
			switch {
			case h > a:
				home += p
			case h == a:
				draw += p
			default:
				away += p
			}
		}
	}

	total := home + draw + away
	if total > 0 {
		home /= total
		draw /= total
		away /= total
	}
	return home, draw, away
}

func logFactorial(n int) float64 {
	if n <= 1 {
		return 0
	}
	sum := 0.0
	for i := 2; i <= n; i++ {
		sum += math.Log(float64(i))
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
