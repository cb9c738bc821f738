package engine

import (
	"math"
	"testing"
)

func TestHitProbClosedFormSmallWalks(t *testing.T) {
	p := 0.6
	cases := []struct {
		n    int
		want float64
	}{
		{0, 0},
		{1, p},
		// with two goals the walk leads iff the first goal is home
		{2, p},
		// down-up-up recovers the lead on the third goal
		{3, p + p*p*(1-p)},
	}
	for _, tc := range cases {
		got := hitProb(tc.n, p)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("hitProb(%d, %f) = %f, want %f", tc.n, p, got, tc.want)
		}
	}
}

func TestHitProbMonotonicInUpProbability(t *testing.T) {
	for n := 1; n <= 8; n++ {
		prev := hitProb(n, 0.05)
		for p := 0.10; p < 1.0; p += 0.05 {
			cur := hitProb(n, p)
			if cur < prev {
				t.Fatalf("hitProb(%d, %f) = %f decreased from %f", n, p, cur, prev)
			}
			prev = cur
		}
	}
}

func TestHitProbBounded(t *testing.T) {
	for n := 0; n <= 12; n++ {
		for _, p := range []float64{0.01, 0.3, 0.5, 0.7, 0.99} {
			got := hitProb(n, p)
			if got < 0 || got > 1 {
				t.Fatalf("hitProb(%d, %f) = %f outside [0,1]", n, p, got)
			}
		}
	}
}

func TestLevelProbClosedForm(t *testing.T) {
	if got := levelProb(0, 0.4); got != 1 {
		t.Fatalf("goalless match must be level, got %f", got)
	}
	for _, n := range []int{1, 3, 5, 7} {
		if got := levelProb(n, 0.5); got != 0 {
			t.Fatalf("odd goal count %d cannot be level, got %f", n, got)
		}
	}
	// two goals split one apiece
	want := 2 * 0.6 * 0.4
	if got := levelProb(2, 0.6); math.Abs(got-want) > 1e-12 {
		t.Fatalf("levelProb(2, 0.6) = %f, want %f", got, want)
	}
	// four goals, central binomial term
	want = 6 * math.Pow(0.5, 4)
	if got := levelProb(4, 0.5); math.Abs(got-want) > 1e-12 {
		t.Fatalf("levelProb(4, 0.5) = %f, want %f", got, want)
	}
}

func TestBarrierBalancedRatesSymmetric(t *testing.T) {
	dp := NewBarrierDP(0)
	lead := dp.EverLead(1.3, 1.3)
	if math.Abs(lead.HomeLead-lead.AwayLead) > 1e-12 {
		t.Fatalf("balanced rates must give symmetric leads: %f vs %f", lead.HomeLead, lead.AwayLead)
	}
}

func TestBarrierSwappedRatesMirror(t *testing.T) {
	dp := NewBarrierDP(0)
	a := dp.EverLead(1.9, 0.8)
	b := dp.EverLead(0.8, 1.9)
	if math.Abs(a.HomeLead-b.AwayLead) > 1e-12 || math.Abs(a.AwayLead-b.HomeLead) > 1e-12 {
		t.Fatalf("swapping rates must mirror the leads: %+v vs %+v", a, b)
	}
	if math.Abs(a.LevelFullTime-b.LevelFullTime) > 1e-12 {
		t.Fatalf("level probability must be symmetric under a swap: %f vs %f", a.LevelFullTime, b.LevelFullTime)
	}
}

func TestBarrierStrongerSideLeadsMore(t *testing.T) {
	dp := NewBarrierDP(0)
	lead := dp.EverLead(2.2, 0.9)
	if lead.HomeLead <= lead.AwayLead {
		t.Fatalf("stronger side must lead more often: home %f, away %f", lead.HomeLead, lead.AwayLead)
	}
}

func TestBarrierLevelMatchesIndependentDraw(t *testing.T) {
	// Conditioning on the total and splitting binomially is the same model
	// as two independent Poissons, so the level probability must match the
	// direct draw sum.
	rateHome, rateAway := 1.6, 1.1
	direct := 0.0
	for k := 0; k <= 12; k++ {
		direct += poissonPMF(k, rateHome) * poissonPMF(k, rateAway)
	}

	dp := NewBarrierDP(0)
	lead := dp.EverLead(rateHome, rateAway)
	if math.Abs(lead.LevelFullTime-direct) > 1e-9 {
		t.Fatalf("level probability %f diverges from independent draw sum %f", lead.LevelFullTime, direct)
	}
}

func TestBarrierProbabilitiesClampedOpen(t *testing.T) {
	dp := NewBarrierDP(0)
	lead := dp.EverLead(0.011, 0.011)
	for name, p := range map[string]float64{
		"home":  lead.HomeLead,
		"away":  lead.AwayLead,
		"level": lead.LevelFullTime,
	} {
		if p <= 0 || p >= 1 {
			t.Fatalf("%s probability %g escaped the open unit interval", name, p)
		}
	}
}
