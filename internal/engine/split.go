package engine

import (
	"github.com/yourusername/oneup/internal/models"
)

// ProportionalSplit rescales independently fitted side rates so their sum
// equals the total fitted from the match over/under ladder.
func ProportionalSplit(total, rawHome, rawAway float64) (float64, float64) {
	sum := rawHome + rawAway
	if sum <= 0 {
		return total / 2, total / 2
	}
	factor := total / sum
	return rawHome * factor, rawAway * factor
}

// FirstScorerShare de-vigs a first-team-to-score market into the home
// share of the first goal and the no-goal probability.
func FirstScorerShare(odds models.ThreeWayOdds) models.ConditionalShare {
	pHome, pNoGoal, _ := RemoveVig3(odds.Home, odds.Draw, odds.Away)
	return models.ConditionalShare{HomeFirst: pHome, NoGoal: pNoGoal}
}

// ShareProviders maps a price source to the bookmaker whose first-scorer
// market is allowed to inform its split. Some books resell another
// provider's odds, so their first-scorer quotes must be read from that
// provider by identity. Sources absent from the map never use a
// first-scorer override.
type ShareProviders map[models.Bookmaker]models.Bookmaker

// DefaultShareProviders returns the production provider rule: sporty and
// bet9ja price their own first-scorer markets, while pawa resells the
// sporty feed.
func DefaultShareProviders() ShareProviders {
	return ShareProviders{
		models.BookmakerSporty: models.BookmakerSporty,
		models.BookmakerBet9ja: models.BookmakerBet9ja,
		models.BookmakerPawa:   models.BookmakerSporty,
	}
}

// Resolve picks the first-scorer conditional share for a price source. The
// returned label records which provider supplied the share, or why none
// did; ok is false whenever the split must fall back to the non-overridden
// path. A missing quote from the mapped provider is never substituted with
// another provider's.
func (sp ShareProviders) Resolve(set *models.MarketSet, source models.Bookmaker) (float64, string, bool) {
	provider, configured := sp[source]
	if !configured {
		return 0, "unknown_bookmaker", false
	}

	odds := set.FirstScorerFor(provider)
	if odds == nil {
		return 0, "no_" + string(provider) + "_first_scorer", false
	}

	share := FirstScorerShare(*odds).HomeGivenGoal()
	share = clamp(share, 1e-6, 1-1e-6)

	label := string(provider)
	if provider != source {
		label = string(provider) + "_for_" + string(source)
	}
	return share, label, true
}
