package engine

import (
	"math"

	"github.com/yourusername/oneup/internal/models"
)

// Rate inference bounds. Rates outside this window are indistinguishable
// from quote noise at bookmaker precision.
const (
	minRate      = 0.01
	maxRate      = 8.0
	fallbackRate = 1.8

	rateGridPoints = 400
	bttsGridPoints = 100
	bttsMinTotal   = 0.5
	bttsMaxTotal   = 5.5
)

// InferRateFromLine solves for the Poisson rate that reproduces one
// de-vigged over/under quote. The upper bracket expands geometrically
// until it contains the target, then bisection narrows it.
func InferRateFromLine(line models.OverUnderLine) float64 {
	if !line.IsValid() {
		return fallbackRate
	}
	pOver, _ := RemoveVig2(line.Over, line.Under)
	goals := line.HalfLine()

	lo := minRate
	hi := 6.0
	for i := 0; i < 20; i++ {
		if overProb(hi, goals) >= pOver {
			break
		}
		hi *= 2
	}
	for i := 0; i < 50; i++ {
		mid := (lo + hi) / 2
		if overProb(mid, goals) < pOver {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// FitRate estimates a scoring rate from an over/under ladder. A single
// usable line is inverted directly; multiple lines are reconciled by least
// squares across the ladder. An empty or fully invalid ladder yields the
// fallback rate, never zero or negative.
func FitRate(lines []models.OverUnderLine, m Minimizer) float64 {
	targets := usableTargets(lines)
	switch len(targets) {
	case 0:
		return fallbackRate
	case 1:
		return InferRateFromLine(targets[0].src)
	}

	loss := func(rate float64) float64 {
		sum := 0.0
		for _, t := range targets {
			diff := overProb(rate, t.goals) - t.pOver
			sum += diff * diff
		}
		return sum
	}
	return minimizeBounded(m, loss, minRate, maxRate, rateGridPoints, "rate_fit")
}

// FitTotalFromBothScore recovers the total scoring rate from a
// both-teams-to-score quote. Used when the total-goals ladder carries no
// usable line. The share fixes how the total divides between the sides:
//
//	P(both score) = 1 - exp(-rh) - exp(-ra) + exp(-(rh+ra))
func FitTotalFromBothScore(odds models.TwoWayOdds, homeShare float64) float64 {
	pYes, _ := RemoveVig2(odds.Yes, odds.No)
	loss := func(total float64) float64 {
		rh := total * homeShare
		ra := total * (1 - homeShare)
		model := 1 - math.Exp(-rh) - math.Exp(-ra) + math.Exp(-(rh+ra))
		diff := model - pYes
		return diff * diff
	}
	total, _ := GridSearch{Points: bttsGridPoints}.Minimize(loss, bttsMinTotal, bttsMaxTotal)
	return total
}

type rateTarget struct {
	src   models.OverUnderLine
	goals float64
	pOver float64
}

func usableTargets(lines []models.OverUnderLine) []rateTarget {
	targets := make([]rateTarget, 0, len(lines))
	for _, l := range lines {
		if !l.IsValid() {
			continue
		}
		pOver, _ := RemoveVig2(l.Over, l.Under)
		targets = append(targets, rateTarget{src: l, goals: l.HalfLine(), pOver: pOver})
	}
	return targets
}

func usableLineCount(lines []models.OverUnderLine) int {
	n := 0
	for _, l := range lines {
		if l.IsValid() {
			n++
		}
	}
	return n
}
