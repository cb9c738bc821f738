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

const errScanSnapshot = "failed to scan snapshot: %w"

// PostgresSnapshotRepository implements SnapshotRepository for PostgreSQL
type PostgresSnapshotRepository struct {
	db *database.DB
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB) SnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Create inserts a new market snapshot
func (r *PostgresSnapshotRepository) Create(ctx context.Context, snapshot *models.MarketSnapshot) error {
	query := `
		INSERT INTO market_snapshots (id, event_id, taken_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.GetPool().Exec(ctx, query, snapshot.ID, snapshot.EventID, snapshot.TakenAt)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	return nil
}

// GetByID retrieves a snapshot by ID
func (r *PostgresSnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MarketSnapshot, error) {
	query := `
		SELECT id, event_id, taken_at, created_at
		FROM market_snapshots WHERE id = $1
	`

	snapshot := &models.MarketSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&snapshot.ID, &snapshot.EventID, &snapshot.TakenAt, &snapshot.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return snapshot, nil
}

// GetLatestByEvent retrieves the most recent snapshot taken for an event
func (r *PostgresSnapshotRepository) GetLatestByEvent(ctx context.Context, eventID uuid.UUID) (*models.MarketSnapshot, error) {
	query := `
		SELECT id, event_id, taken_at, created_at
		FROM market_snapshots
		WHERE event_id = $1
		ORDER BY taken_at DESC
		LIMIT 1
	`

	snapshot := &models.MarketSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query, eventID).Scan(
		&snapshot.ID, &snapshot.EventID, &snapshot.TakenAt, &snapshot.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return snapshot, nil
}

// ListUnpriced retrieves snapshots that carry no price record under the
// given engine version, oldest first. A snapshot priced by an earlier
// engine version still shows up here, so version bumps reprice the board.
func (r *PostgresSnapshotRepository) ListUnpriced(ctx context.Context, engineVersion string, limit int) ([]*models.MarketSnapshot, error) {
	query := `
		SELECT s.id, s.event_id, s.taken_at, s.created_at
		FROM market_snapshots s
		WHERE NOT EXISTS (
			SELECT 1 FROM price_records p
			WHERE p.snapshot_id = s.id AND p.engine_version = $1
		)
		ORDER BY s.taken_at ASC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, engineVersion, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpriced snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.MarketSnapshot
	for rows.Next() {
		snapshot := &models.MarketSnapshot{}
		err := rows.Scan(&snapshot.ID, &snapshot.EventID, &snapshot.TakenAt, &snapshot.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf(errScanSnapshot, err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// SaveQuote stores one bookmaker's parsed market set for a snapshot
func (r *PostgresSnapshotRepository) SaveQuote(ctx context.Context, quote *models.MarketQuote) error {
	marketsJSON, err := json.Marshal(quote.Markets)
	if err != nil {
		return fmt.Errorf("failed to marshal markets: %w", err)
	}

	query := `
		INSERT INTO market_quotes (id, snapshot_id, bookmaker, markets)
		VALUES ($1, $2, $3, $4)
	`

	_, err = r.db.GetPool().Exec(ctx, query, quote.ID, quote.SnapshotID, quote.Bookmaker, marketsJSON)
	if err != nil {
		return fmt.Errorf("failed to save market quote: %w", err)
	}

	return nil
}

// GetQuotes retrieves all bookmaker quotes attached to a snapshot
func (r *PostgresSnapshotRepository) GetQuotes(ctx context.Context, snapshotID uuid.UUID) ([]*models.MarketQuote, error) {
	query := `
		SELECT id, snapshot_id, bookmaker, markets, created_at
		FROM market_quotes
		WHERE snapshot_id = $1
		ORDER BY bookmaker ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query market quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*models.MarketQuote
	for rows.Next() {
		quote := &models.MarketQuote{}
		var marketsJSON []byte
		err := rows.Scan(&quote.ID, &quote.SnapshotID, &quote.Bookmaker, &marketsJSON, &quote.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market quote: %w", err)
		}
		if len(marketsJSON) > 0 {
			if err := json.Unmarshal(marketsJSON, &quote.Markets); err != nil {
				return nil, fmt.Errorf("failed to unmarshal markets: %w", err)
			}
		}
		quotes = append(quotes, quote)
	}

	return quotes, rows.Err()
}
