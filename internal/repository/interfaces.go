package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/oneup/internal/models"
)

// EventRepository defines the interface for event data access
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	GetByFeedID(ctx context.Context, feedID string) (*models.Event, error)
	GetUpcoming(ctx context.Context, limit int) ([]*models.Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// SnapshotRepository defines the interface for market snapshot data access
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *models.MarketSnapshot) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MarketSnapshot, error)
	GetLatestByEvent(ctx context.Context, eventID uuid.UUID) (*models.MarketSnapshot, error)
	ListUnpriced(ctx context.Context, engineVersion string, limit int) ([]*models.MarketSnapshot, error)
	SaveQuote(ctx context.Context, quote *models.MarketQuote) error
	GetQuotes(ctx context.Context, snapshotID uuid.UUID) ([]*models.MarketQuote, error)
}

// PriceRepository defines the interface for price record persistence
type PriceRepository interface {
	Insert(ctx context.Context, record *models.PriceRecord) error
	Exists(ctx context.Context, eventID, snapshotID uuid.UUID, engineVersion string, source models.Bookmaker) (bool, error)
	GetBySnapshot(ctx context.Context, snapshotID uuid.UUID) ([]*models.PriceRecord, error)
	GetLatestByEvent(ctx context.Context, eventID uuid.UUID, engineVersion string) ([]*models.PriceRecord, error)
}
