package models

import (
	"math"
)

// Bookmaker identifies the odds source a price is composed for
type Bookmaker string

const (
	BookmakerSporty Bookmaker = "sporty"
	BookmakerPawa   Bookmaker = "pawa"
	BookmakerBet9ja Bookmaker = "bet9ja"
)

// MinDecimalOdds is the lowest decimal odds value treated as a real quote.
// Anything at or below this is a placeholder or a suspended selection.
const MinDecimalOdds = 1.01

// ThreeWayOdds holds decimal odds for a three-outcome market (1X2 or
// first-team-to-score where the middle outcome is "no goal")
type ThreeWayOdds struct {
	Home float64 `db:"home" json:"home" validate:"required,gt=1"`
	Draw float64 `db:"draw" json:"draw" validate:"required,gt=1"`
	Away float64 `db:"away" json:"away" validate:"required,gt=1"`
}

// IsValid reports whether all three quotes are usable
func (o *ThreeWayOdds) IsValid() bool {
	return o != nil && o.Home > MinDecimalOdds && o.Draw > MinDecimalOdds && o.Away > MinDecimalOdds
}

// TwoWayOdds holds decimal odds for a yes/no market such as both-teams-to-score
type TwoWayOdds struct {
	Yes float64 `db:"yes" json:"yes" validate:"required,gt=1"`
	No  float64 `db:"no" json:"no" validate:"required,gt=1"`
}

// IsValid reports whether both quotes are usable
func (o *TwoWayOdds) IsValid() bool {
	return o != nil && o.Yes > MinDecimalOdds && o.No > MinDecimalOdds
}

// OverUnderLine is a single over/under quote at a goal line
type OverUnderLine struct {
	Line  float64 `db:"line" json:"line" validate:"required,gt=0"`
	Over  float64 `db:"over" json:"over" validate:"required,gt=1"`
	Under float64 `db:"under" json:"under" validate:"required,gt=1"`
}

// IsValid reports whether the line carries a usable two-sided quote
func (l OverUnderLine) IsValid() bool {
	return l.Line > 0 && l.Over > MinDecimalOdds && l.Under > MinDecimalOdds
}

// HalfLine returns the line rounded to the nearest half goal. Quarter lines
// (2.25, 2.75) collapse onto the adjacent half line for Poisson thresholds.
func (l OverUnderLine) HalfLine() float64 {
	return math.Round(l.Line*2) / 2
}

// MarketSet is the full collection of parsed market quotes for one event
// snapshot. MatchResult and the three over/under families are mandatory
// inputs to pricing; FirstScorer and BothScore refine it when present.
type MarketSet struct {
	MatchResult *ThreeWayOdds               `json:"match_result"`
	TotalGoals  []OverUnderLine             `json:"total_goals"`
	HomeGoals   []OverUnderLine             `json:"home_goals"`
	AwayGoals   []OverUnderLine             `json:"away_goals"`
	FirstScorer map[Bookmaker]*ThreeWayOdds `json:"first_scorer,omitempty"`
	BothScore   *TwoWayOdds                 `json:"both_score,omitempty"`
}

// HasMandatoryMarkets reports whether the set carries everything pricing
// cannot proceed without: a valid 1X2 plus at least one line in each
// over/under family.
func (m *MarketSet) HasMandatoryMarkets() bool {
	if m == nil || !m.MatchResult.IsValid() {
		return false
	}
	return len(m.TotalGoals) > 0 && len(m.HomeGoals) > 0 && len(m.AwayGoals) > 0
}

// FirstScorerFor returns the first-team-to-score quote supplied by the
// given provider, or nil when that provider has none.
func (m *MarketSet) FirstScorerFor(provider Bookmaker) *ThreeWayOdds {
	if m == nil || m.FirstScorer == nil {
		return nil
	}
	odds := m.FirstScorer[provider]
	if !odds.IsValid() {
		return nil
	}
	return odds
}
