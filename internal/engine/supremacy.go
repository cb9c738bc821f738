package engine

import (
	"github.com/yourusername/oneup/internal/models"
)

// Supremacy search bounds. A rate gap beyond two goals a side is outside
// anything the 1X2 market can support at soccer totals.
const (
	supremacyBound      = 2.0
	supremacyGridPoints = 201
)

// CalibrateSupremacy finds the home-minus-away rate difference whose
// independent-Poisson match-result distribution sits closest to the
// de-vigged market 1X2, holding the total rate fixed. Returns the chosen
// supremacy and the squared-distance loss at that point.
func CalibrateSupremacy(total float64, market models.ThreeWayOdds, m Minimizer) (float64, float64) {
	pHome, pDraw, pAway := RemoveVig3(market.Home, market.Draw, market.Away)

	loss := func(s float64) float64 {
		rateHome := (total + s) / 2
		rateAway := (total - s) / 2
		mh, md, ma := matchResultProbs(rateHome, rateAway)
		return (mh-pHome)*(mh-pHome) + (md-pDraw)*(md-pDraw) + (ma-pAway)*(ma-pAway)
	}

	s := minimizeBounded(m, loss, -supremacyBound, supremacyBound, supremacyGridPoints, "supremacy")
	return s, loss(s)
}

// SplitFromSupremacy converts a total rate and supremacy back into the
// side rates, flooring each side so an extreme supremacy on a low total
// never produces a non-positive rate.
func SplitFromSupremacy(total, supremacy float64) (float64, float64) {
	rateHome := (total + supremacy) / 2
	rateAway := (total - supremacy) / 2
	if rateHome < minRate {
		rateHome = minRate
	}
	if rateAway < minRate {
		rateAway = minRate
	}
	return rateHome, rateAway
}
