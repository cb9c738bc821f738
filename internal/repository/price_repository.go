package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/oneup/internal/database"
	"github.com/yourusername/oneup/internal/models"
)

const errScanPriceRecord = "failed to scan price record: %w"

// PostgresPriceRepository implements PriceRepository for PostgreSQL
type PostgresPriceRepository struct {
	db *database.DB
}

// NewPostgresPriceRepository creates a new price record repository
func NewPostgresPriceRepository(db *database.DB) PriceRepository {
	return &PostgresPriceRepository{db: db}
}

// Insert writes one price record. The table is unique on
// (event_id, snapshot_id, engine_version, source); a conflicting insert
// writes nothing and returns models.ErrDuplicateKey so callers can count
// duplicates without treating them as failures.
func (r *PostgresPriceRepository) Insert(ctx context.Context, record *models.PriceRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	diagnosticsJSON, err := json.Marshal(record.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnostics: %w", err)
	}

	query := `
		INSERT INTO price_records (
			id, event_id, snapshot_id, engine_version, source,
			rate_home, rate_away, rate_total,
			raw_home_lead, raw_away_lead, home_lead, away_lead, level_full_time,
			home_fair, home_margin, away_fair, away_margin, draw_odds, diagnostics
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (event_id, snapshot_id, engine_version, source) DO NOTHING
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query,
		record.ID, record.EventID, record.SnapshotID, record.EngineVersion, record.Source,
		record.Rates.Home, record.Rates.Away, record.Rates.Total,
		record.RawHomeLead, record.RawAwayLead, record.HomeLead, record.AwayLead, record.LevelFullTime,
		record.HomePrice.Fair, record.HomePrice.Margin, record.AwayPrice.Fair, record.AwayPrice.Margin,
		record.DrawOdds, diagnosticsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price record: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrDuplicateKey
	}

	return nil
}

// Exists reports whether a record is already stored for the pricing unit
func (r *PostgresPriceRepository) Exists(ctx context.Context, eventID, snapshotID uuid.UUID, engineVersion string, source models.Bookmaker) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM price_records
			WHERE event_id = $1 AND snapshot_id = $2 AND engine_version = $3 AND source = $4
		)
	`

	var exists bool
	err := r.db.GetPool().QueryRow(ctx, query, eventID, snapshotID, engineVersion, source).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check price record existence: %w", err)
	}

	return exists, nil
}

// GetBySnapshot retrieves every price record written for a snapshot,
// across engine versions and sources
func (r *PostgresPriceRepository) GetBySnapshot(ctx context.Context, snapshotID uuid.UUID) ([]*models.PriceRecord, error) {
	query := `
		SELECT id, event_id, snapshot_id, engine_version, source,
		       rate_home, rate_away, rate_total,
		       raw_home_lead, raw_away_lead, home_lead, away_lead, level_full_time,
		       home_fair, home_margin, away_fair, away_margin, draw_odds, diagnostics, created_at
		FROM price_records
		WHERE snapshot_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query price records by snapshot: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// GetLatestByEvent retrieves the most recent price record per source for
// an event under the given engine version
func (r *PostgresPriceRepository) GetLatestByEvent(ctx context.Context, eventID uuid.UUID, engineVersion string) ([]*models.PriceRecord, error) {
	query := `
		SELECT DISTINCT ON (source)
		       id, event_id, snapshot_id, engine_version, source,
		       rate_home, rate_away, rate_total,
		       raw_home_lead, raw_away_lead, home_lead, away_lead, level_full_time,
		       home_fair, home_margin, away_fair, away_margin, draw_odds, diagnostics, created_at
		FROM price_records
		WHERE event_id = $1 AND engine_version = $2
		ORDER BY source, created_at DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventID, engineVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest price records: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

func scanPriceRecords(rows pgx.Rows) ([]*models.PriceRecord, error) {
	var records []*models.PriceRecord
	for rows.Next() {
		record := &models.PriceRecord{}
		var diagnosticsJSON []byte
		err := rows.Scan(
			&record.ID, &record.EventID, &record.SnapshotID, &record.EngineVersion, &record.Source,
			&record.Rates.Home, &record.Rates.Away, &record.Rates.Total,
			&record.RawHomeLead, &record.RawAwayLead, &record.HomeLead, &record.AwayLead, &record.LevelFullTime,
			&record.HomePrice.Fair, &record.HomePrice.Margin, &record.AwayPrice.Fair, &record.AwayPrice.Margin,
			&record.DrawOdds, &diagnosticsJSON, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanPriceRecord, err)
		}
		if len(diagnosticsJSON) > 0 {
			if err := json.Unmarshal(diagnosticsJSON, &record.Diagnostics); err != nil {
				return nil, fmt.Errorf("failed to unmarshal diagnostics: %w", err)
			}
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
