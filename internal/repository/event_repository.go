package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/oneup/internal/database"
	"github.com/yourusername/oneup/internal/models"
)

const errScanEvent = "failed to scan event: %w"

// PostgresEventRepository implements EventRepository for PostgreSQL
type PostgresEventRepository struct {
	db *database.DB
}

// NewPostgresEventRepository creates a new event repository
func NewPostgresEventRepository(db *database.DB) EventRepository {
	return &PostgresEventRepository{db: db}
}

// Create inserts a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, feed_id, league, home_team, away_team, kickoff_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		event.ID, event.FeedID, event.League, event.HomeTeam, event.AwayTeam,
		event.KickoffAt, event.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `
		SELECT id, feed_id, league, home_team, away_team, kickoff_at, status, created_at, updated_at
		FROM events WHERE id = $1
	`

	event := &models.Event{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&event.ID, &event.FeedID, &event.League, &event.HomeTeam, &event.AwayTeam,
		&event.KickoffAt, &event.Status, &event.CreatedAt, &event.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// GetByFeedID retrieves an event by its upstream feed identifier, used to
// deduplicate events arriving from the odds feed
func (r *PostgresEventRepository) GetByFeedID(ctx context.Context, feedID string) (*models.Event, error) {
	query := `
		SELECT id, feed_id, league, home_team, away_team, kickoff_at, status, created_at, updated_at
		FROM events WHERE feed_id = $1
	`

	event := &models.Event{}
	err := r.db.GetPool().QueryRow(ctx, query, feedID).Scan(
		&event.ID, &event.FeedID, &event.League, &event.HomeTeam, &event.AwayTeam,
		&event.KickoffAt, &event.Status, &event.CreatedAt, &event.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by feed id: %w", err)
	}

	return event, nil
}

// GetUpcoming retrieves scheduled events ordered by kickoff time
func (r *PostgresEventRepository) GetUpcoming(ctx context.Context, limit int) ([]*models.Event, error) {
	query := `
		SELECT id, feed_id, league, home_team, away_team, kickoff_at, status, created_at, updated_at
		FROM events
		WHERE status = 'scheduled' AND kickoff_at > NOW()
		ORDER BY kickoff_at ASC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		err := rows.Scan(
			&event.ID, &event.FeedID, &event.League, &event.HomeTeam, &event.AwayTeam,
			&event.KickoffAt, &event.Status, &event.CreatedAt, &event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanEvent, err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// UpdateStatus transitions an event to a new lifecycle status
func (r *PostgresEventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE events SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
