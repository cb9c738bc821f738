package engine

import (
	"math"
	"testing"

	"github.com/yourusername/oneup/internal/models"
)

// fairMatchResult builds the vig-free 1X2 quote implied by a rate pair.
func fairMatchResult(rateHome, rateAway float64) models.ThreeWayOdds {
	pHome, pDraw, pAway := matchResultProbs(rateHome, rateAway)
	return models.ThreeWayOdds{Home: 1 / pHome, Draw: 1 / pDraw, Away: 1 / pAway}
}

func TestCalibrateSupremacySymmetricMarket(t *testing.T) {
	market := fairMatchResult(1.25, 1.25)
	s, loss := CalibrateSupremacy(2.5, market, GoldenSection{})
	if math.Abs(s) > 0.02 {
		t.Fatalf("symmetric 1X2 should calibrate to zero supremacy, got %f", s)
	}
	if loss > 1e-6 {
		t.Fatalf("loss at a perfectly consistent market should vanish, got %g", loss)
	}
}

func TestCalibrateSupremacyRecoversKnownGap(t *testing.T) {
	for _, tc := range []struct{ home, away float64 }{
		{1.8, 1.0},
		{1.1, 1.9},
		{2.3, 0.7},
	} {
		market := fairMatchResult(tc.home, tc.away)
		total := tc.home + tc.away
		s, _ := CalibrateSupremacy(total, market, GoldenSection{})
		want := tc.home - tc.away
		if math.Abs(s-want) > 0.05 {
			t.Fatalf("rates %f/%f: supremacy %f, want %f", tc.home, tc.away, s, want)
		}
	}
}

func TestCalibrateSupremacySignFollowsFavourite(t *testing.T) {
	homeFavoured := models.ThreeWayOdds{Home: 1.60, Draw: 4.00, Away: 5.50}
	s, _ := CalibrateSupremacy(2.6, homeFavoured, GoldenSection{})
	if s <= 0 {
		t.Fatalf("home-favoured market must give positive supremacy, got %f", s)
	}

	awayFavoured := models.ThreeWayOdds{Home: 5.50, Draw: 4.00, Away: 1.60}
	s, _ = CalibrateSupremacy(2.6, awayFavoured, GoldenSection{})
	if s >= 0 {
		t.Fatalf("away-favoured market must give negative supremacy, got %f", s)
	}
}

func TestCalibrateSupremacyGridAgreesWithGolden(t *testing.T) {
	market := fairMatchResult(1.7, 1.2)
	golden, _ := CalibrateSupremacy(2.9, market, GoldenSection{})
	grid, _ := CalibrateSupremacy(2.9, market, GridSearch{})
	if math.Abs(golden-grid) > 0.03 {
		t.Fatalf("minimizers disagree: golden %f, grid %f", golden, grid)
	}
}

func TestSplitFromSupremacyRoundTrips(t *testing.T) {
	home, away := SplitFromSupremacy(3.0, 0.8)
	if math.Abs(home-1.9) > 1e-12 || math.Abs(away-1.1) > 1e-12 {
		t.Fatalf("split = %f/%f, want 1.9/1.1", home, away)
	}
}

func TestSplitFromSupremacyFloorsNonPositiveSide(t *testing.T) {
	home, away := SplitFromSupremacy(0.6, 2.0)
	if away != minRate {
		t.Fatalf("extreme supremacy on a low total must floor the away rate, got %f", away)
	}
	if home <= 0 {
		t.Fatalf("home rate must stay positive, got %f", home)
	}
}
