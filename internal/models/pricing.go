package models

import (
	"time"

	"github.com/google/uuid"
)

// RateEstimate holds the inferred Poisson scoring rates for one match
type RateEstimate struct {
	Home  float64 `db:"rate_home" json:"rate_home" validate:"required,gt=0"`
	Away  float64 `db:"rate_away" json:"rate_away" validate:"required,gt=0"`
	Total float64 `db:"rate_total" json:"rate_total" validate:"required,gt=0"`
}

// Ratio returns the strength ratio between the two sides, stronger over
// weaker. Rates below the floor are treated as uninformative.
func (r RateEstimate) Ratio() float64 {
	const floor = 0.01
	if r.Home < floor || r.Away < floor {
		return 1.0
	}
	if r.Home >= r.Away {
		return r.Home / r.Away
	}
	return r.Away / r.Home
}

// HomeIsWeaker reports which side carries the lower scoring rate
func (r RateEstimate) HomeIsWeaker() bool {
	return r.Home < r.Away
}

// ConditionalShare is the home share of the first goal, conditioned on a
// goal being scored at all
type ConditionalShare struct {
	HomeFirst float64 `json:"home_first"`
	NoGoal    float64 `json:"no_goal"`
}

// HomeGivenGoal returns P(home scores first | at least one goal)
func (s ConditionalShare) HomeGivenGoal() float64 {
	if s.NoGoal >= 1 {
		return 0.5
	}
	return s.HomeFirst / (1 - s.NoGoal)
}

// LeadProbabilities are the outputs of a lead-probability strategy: the
// chance each side is ever strictly ahead, and the chance the match ends
// level. The three values do not sum to one.
type LeadProbabilities struct {
	HomeLead      float64 `json:"home_lead"`
	AwayLead      float64 `json:"away_lead"`
	LevelFullTime float64 `json:"level_full_time"`
}

// PriceQuote is a composed pair of odds for a single outcome
type PriceQuote struct {
	Fair   float64 `db:"fair" json:"fair"`
	Margin float64 `db:"margin" json:"margin"`
}

// PriceRecord is the complete audit trail of one pricing run for one
// (event, snapshot, source) unit. Everything needed to reconstruct the
// price is stored alongside it.
type PriceRecord struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	EventID       uuid.UUID    `db:"event_id" json:"event_id" validate:"required"`
	SnapshotID    uuid.UUID    `db:"snapshot_id" json:"snapshot_id" validate:"required"`
	EngineVersion string       `db:"engine_version" json:"engine_version" validate:"required"`
	Source        Bookmaker    `db:"source" json:"source" validate:"required"`
	Rates         RateEstimate `db:"-" json:"rates"`

	// Raw strategy outputs before empirical correction
	RawHomeLead float64 `db:"raw_home_lead" json:"raw_home_lead"`
	RawAwayLead float64 `db:"raw_away_lead" json:"raw_away_lead"`

	// Corrected probabilities actually priced
	HomeLead      float64 `db:"home_lead" json:"home_lead"`
	AwayLead      float64 `db:"away_lead" json:"away_lead"`
	LevelFullTime float64 `db:"level_full_time" json:"level_full_time"`

	HomePrice PriceQuote `db:"-" json:"home_price"`
	AwayPrice PriceQuote `db:"-" json:"away_price"`

	// DrawOdds carries the bookmaker's own 1X2 draw quote through as the
	// middle column of the 1UP display market.
	DrawOdds float64 `db:"draw_odds" json:"draw_odds"`

	Diagnostics PriceDiagnostics `db:"-" json:"diagnostics"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// PriceDiagnostics records how the price was derived, for audit without
// recomputation
type PriceDiagnostics struct {
	Supremacy          float64 `json:"supremacy"`
	SupremacyLoss      float64 `json:"supremacy_loss"`
	HomeShare          float64 `json:"home_share"`
	ShareSource        string  `json:"share_source"`
	ProportionalShare  float64 `json:"proportional_share"`
	CalibrationVersion string  `json:"calibration_version"`
	Method             string  `json:"method"`
	MarginApplied      float64 `json:"margin_applied"`
	TotalRateSource    string  `json:"total_rate_source"`
	Clamped            bool    `json:"clamped,omitempty"`
}

// Key returns the duplicate-suppression key for a pricing unit
func (p *PriceRecord) Key() string {
	return PricingKey(p.EventID, p.SnapshotID, p.EngineVersion, p.Source)
}

// PricingKey builds the uniqueness key shared by the cache layer and the
// price_records unique index
func PricingKey(eventID, snapshotID uuid.UUID, engineVersion string, source Bookmaker) string {
	return eventID.String() + ":" + snapshotID.String() + ":" + engineVersion + ":" + string(source)
}
