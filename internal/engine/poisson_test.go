package engine

import (
	"math"
	"math/rand"
	"testing"
)

func TestPoissonPMFSumsToOne(t *testing.T) {
	for _, lambda := range []float64{0.5, 1.8, 3.2, 6.0} {
		sum := 0.0
		for k := 0; k <= 60; k++ {
			sum += poissonPMF(k, lambda)
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("pmf mass for lambda=%f sums to %f", lambda, sum)
		}
	}
}

func TestPoissonTailComplementsCDF(t *testing.T) {
	lambda := 2.7
	for k := 0; k <= 10; k++ {
		total := poissonCDF(k, lambda) + poissonTail(k+1, lambda)
		if math.Abs(total-1.0) > 1e-12 {
			t.Fatalf("cdf(%d) + tail(%d) = %f, want 1", k, k+1, total)
		}
	}
}

func TestOverProbQuarterLinesCollapse(t *testing.T) {
	lambda := 2.4
	// 2.25 rounds onto 2.5, and a whole 2.0 line shares the same
	// three-or-more threshold
	if overProb(lambda, 2.25) != overProb(lambda, 2.5) {
		t.Fatalf("quarter line should collapse onto the half line")
	}
	if overProb(lambda, 2.0) != overProb(lambda, 2.5) {
		t.Fatalf("whole and half line share the integer threshold")
	}
	if overProb(lambda, 2.5) >= overProb(lambda, 1.5) {
		t.Fatalf("higher line must have smaller over probability")
	}
}

func TestSamplePoissonMatchesMean(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	lambda := 1.6
	n := 200000
	sum := 0
	for i := 0; i < n; i++ {
		sum += samplePoisson(rng, lambda)
	}
	mean := float64(sum) / float64(n)
	if math.Abs(mean-lambda) > 0.02 {
		t.Fatalf("sample mean %f too far from %f", mean, lambda)
	}
}

func TestMatchResultProbsSymmetric(t *testing.T) {
	home, draw, away := matchResultProbs(1.4, 1.4)
	if math.Abs(home-away) > 1e-12 {
		t.Fatalf("equal rates should give equal win probabilities: %f vs %f", home, away)
	}
	if math.Abs(home+draw+away-1.0) > 1e-12 {
		t.Fatalf("result probabilities should sum to 1")
	}
}

func TestMatchResultProbsFavorsHigherRate(t *testing.T) {
	home, _, away := matchResultProbs(2.0, 1.0)
	if home <= away {
		t.Fatalf("higher home rate must imply higher win probability: %f vs %f", home, away)
	}
}
