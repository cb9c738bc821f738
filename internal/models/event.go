package models

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a soccer match in the system
type Event struct {
	ID        uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	FeedID    string    `db:"feed_id" json:"feed_id" validate:"required"`
	League    string    `db:"league" json:"league"`
	HomeTeam  string    `db:"home_team" json:"home_team" validate:"required"`
	AwayTeam  string    `db:"away_team" json:"away_team" validate:"required"`
	KickoffAt time.Time `db:"kickoff_at" json:"kickoff_at" validate:"required"`
	Status    string    `db:"status" json:"status" validate:"oneof=scheduled live finished cancelled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsUpcoming checks if the match has not kicked off yet
func (e *Event) IsUpcoming() bool {
	return e.Status == "scheduled" && time.Now().Before(e.KickoffAt)
}

// TimeToKickoff returns the duration until kickoff
func (e *Event) TimeToKickoff() time.Duration {
	return time.Until(e.KickoffAt)
}

// MarketSnapshot is one point-in-time capture of the odds board for an
// event. Snapshots are immutable once written; repricing a snapshot under
// a new engine version produces a new price record, never an update.
type MarketSnapshot struct {
	ID        uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	EventID   uuid.UUID `db:"event_id" json:"event_id" validate:"required,uuid4"`
	TakenAt   time.Time `db:"taken_at" json:"taken_at" validate:"required"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MarketQuote holds the parsed market set one bookmaker offered within a
// snapshot
type MarketQuote struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SnapshotID uuid.UUID `db:"snapshot_id" json:"snapshot_id" validate:"required,uuid4"`
	Bookmaker  Bookmaker `db:"bookmaker" json:"bookmaker" validate:"required"`
	Markets    MarketSet `db:"markets" json:"markets"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
