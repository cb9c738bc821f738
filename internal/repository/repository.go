// Package repository provides PostgreSQL persistence for pricing data.
//
// Schema is applied with the golang-migrate CLI. The tables the
// repositories expect:
//
//	CREATE TABLE events (
//	    id         UUID PRIMARY KEY,
//	    feed_id    TEXT NOT NULL UNIQUE,
//	    league     TEXT NOT NULL DEFAULT '',
//	    home_team  TEXT NOT NULL,
//	    away_team  TEXT NOT NULL,
//	    kickoff_at TIMESTAMPTZ NOT NULL,
//	    status     TEXT NOT NULL DEFAULT 'scheduled',
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
//	CREATE TABLE market_snapshots (
//	    id         UUID PRIMARY KEY,
//	    event_id   UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
//	    taken_at   TIMESTAMPTZ NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
//	CREATE TABLE market_quotes (
//	    id          UUID PRIMARY KEY,
//	    snapshot_id UUID NOT NULL REFERENCES market_snapshots(id) ON DELETE CASCADE,
//	    bookmaker   TEXT NOT NULL,
//	    markets     JSONB NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    UNIQUE (snapshot_id, bookmaker)
//	);
//
//	CREATE TABLE price_records (
//	    id              UUID PRIMARY KEY,
//	    event_id        UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
//	    snapshot_id     UUID NOT NULL REFERENCES market_snapshots(id) ON DELETE CASCADE,
//	    engine_version  TEXT NOT NULL,
//	    source          TEXT NOT NULL,
//	    rate_home       DOUBLE PRECISION NOT NULL,
//	    rate_away       DOUBLE PRECISION NOT NULL,
//	    rate_total      DOUBLE PRECISION NOT NULL,
//	    raw_home_lead   DOUBLE PRECISION NOT NULL,
//	    raw_away_lead   DOUBLE PRECISION NOT NULL,
//	    home_lead       DOUBLE PRECISION NOT NULL,
//	    away_lead       DOUBLE PRECISION NOT NULL,
//	    level_full_time DOUBLE PRECISION NOT NULL,
//	    home_fair       DOUBLE PRECISION NOT NULL,
//	    home_margin     DOUBLE PRECISION NOT NULL,
//	    away_fair       DOUBLE PRECISION NOT NULL,
//	    away_margin     DOUBLE PRECISION NOT NULL,
//	    draw_odds       DOUBLE PRECISION NOT NULL,
//	    diagnostics     JSONB NOT NULL DEFAULT '{}',
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    UNIQUE (event_id, snapshot_id, engine_version, source)
//	);
//
// The unique index on price_records matches models.PricingKey, so the
// cache layer and the database enforce the same dedupe rule.
package repository

import (
	"fmt"

	"github.com/yourusername/oneup/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Event    EventRepository
	Snapshot SnapshotRepository
	Price    PriceRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Event:    NewPostgresEventRepository(db),
		Snapshot: NewPostgresSnapshotRepository(db),
		Price:    NewPostgresPriceRepository(db),
	}, nil
}
