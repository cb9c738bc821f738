package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oneup/internal/engine"
	"github.com/yourusername/oneup/internal/models"
)

// fakeSnapshotRepo serves canned snapshots and quotes
type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots []*models.MarketSnapshot
	quotes    map[uuid.UUID][]*models.MarketQuote
	quotesErr error
	listErr   error
}

func (f *fakeSnapshotRepo) Create(ctx context.Context, snapshot *models.MarketSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snapshot)
	return nil
}

func (f *fakeSnapshotRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MarketSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.snapshots {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeSnapshotRepo) GetLatestByEvent(ctx context.Context, eventID uuid.UUID) (*models.MarketSnapshot, error) {
	return nil, models.ErrNotFound
}

func (f *fakeSnapshotRepo) ListUnpriced(ctx context.Context, engineVersion string, limit int) ([]*models.MarketSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.snapshots) > limit {
		return f.snapshots[:limit], nil
	}
	return f.snapshots, nil
}

func (f *fakeSnapshotRepo) SaveQuote(ctx context.Context, quote *models.MarketQuote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quotes == nil {
		f.quotes = make(map[uuid.UUID][]*models.MarketQuote)
	}
	f.quotes[quote.SnapshotID] = append(f.quotes[quote.SnapshotID], quote)
	return nil
}

func (f *fakeSnapshotRepo) GetQuotes(ctx context.Context, snapshotID uuid.UUID) ([]*models.MarketQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quotesErr != nil {
		return nil, f.quotesErr
	}
	return f.quotes[snapshotID], nil
}

// fakePriceRepo stores records in memory and enforces the unique key
type fakePriceRepo struct {
	mu        sync.Mutex
	records   []*models.PriceRecord
	keys      map[string]bool
	insertErr error
}

func (f *fakePriceRepo) Insert(ctx context.Context, record *models.PriceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.keys == nil {
		f.keys = make(map[string]bool)
	}
	key := record.Key()
	if f.keys[key] {
		return models.ErrDuplicateKey
	}
	f.keys[key] = true
	f.records = append(f.records, record)
	return nil
}

func (f *fakePriceRepo) Exists(ctx context.Context, eventID, snapshotID uuid.UUID, engineVersion string, source models.Bookmaker) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[models.PricingKey(eventID, snapshotID, engineVersion, source)], nil
}

func (f *fakePriceRepo) GetBySnapshot(ctx context.Context, snapshotID uuid.UUID) ([]*models.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PriceRecord
	for _, r := range f.records {
		if r.SnapshotID == snapshotID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePriceRepo) GetLatestByEvent(ctx context.Context, eventID uuid.UUID, engineVersion string) ([]*models.PriceRecord, error) {
	return nil, nil
}

func (f *fakePriceRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// priceableMarkets builds a market set every engine configuration can price
func priceableMarkets() models.MarketSet {
	return models.MarketSet{
		MatchResult: &models.ThreeWayOdds{Home: 2.10, Draw: 3.40, Away: 3.50},
		TotalGoals: []models.OverUnderLine{
			{Line: 1.5, Over: 1.32, Under: 3.25},
			{Line: 2.5, Over: 1.95, Under: 1.85},
			{Line: 3.5, Over: 3.40, Under: 1.30},
		},
		HomeGoals: []models.OverUnderLine{
			{Line: 1.5, Over: 2.30, Under: 1.57},
		},
		AwayGoals: []models.OverUnderLine{
			{Line: 1.5, Over: 3.10, Under: 1.35},
		},
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testEngine(t *testing.T, calibration string) *engine.Engine {
	t.Helper()
	cfg := engine.DefaultConfig()
	if calibration != "" {
		cfg.Calibration = calibration
	}
	eng, err := engine.NewEngine(cfg, quietLogger())
	require.NoError(t, err)
	return eng
}

// seedSnapshot adds one snapshot carrying quotes from the given bookmakers
func seedSnapshot(repo *fakeSnapshotRepo, bookmakers ...models.Bookmaker) *models.MarketSnapshot {
	snapshot := &models.MarketSnapshot{
		ID:      uuid.New(),
		EventID: uuid.New(),
		TakenAt: time.Now(),
	}
	repo.snapshots = append(repo.snapshots, snapshot)
	if repo.quotes == nil {
		repo.quotes = make(map[uuid.UUID][]*models.MarketQuote)
	}
	for _, b := range bookmakers {
		repo.quotes[snapshot.ID] = append(repo.quotes[snapshot.ID], &models.MarketQuote{
			ID:         uuid.New(),
			SnapshotID: snapshot.ID,
			Bookmaker:  b,
			Markets:    priceableMarkets(),
		})
	}
	return snapshot
}

func TestPricingRunPricesAllUnits(t *testing.T) {
	snapshotRepo := &fakeSnapshotRepo{}
	priceRepo := &fakePriceRepo{}
	for i := 0; i < 3; i++ {
		seedSnapshot(snapshotRepo, models.BookmakerSporty, models.BookmakerBet9ja)
	}

	svc, err := NewPricingService(testEngine(t, ""), snapshotRepo, priceRepo, quietLogger(), PricingOptions{Workers: 4})
	require.NoError(t, err)

	summary, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Pending)
	assert.Equal(t, 6, summary.Priced)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 0, summary.Insufficient)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 6, priceRepo.count())

	for _, record := range priceRepo.records {
		assert.Equal(t, svc.Engine().Version(), record.EngineVersion)
		assert.NotEqual(t, uuid.Nil, record.EventID)
		assert.NotEqual(t, uuid.Nil, record.SnapshotID)
		assert.Greater(t, record.HomePrice.Fair, 1.0)
		assert.Greater(t, record.AwayPrice.Fair, 1.0)
	}
}

func TestPricingRunCountsInsufficientData(t *testing.T) {
	snapshotRepo := &fakeSnapshotRepo{}
	priceRepo := &fakePriceRepo{}

	snapshot := seedSnapshot(snapshotRepo, models.BookmakerSporty)
	// Strip the 1X2 so the unit cannot be priced
	snapshotRepo.quotes[snapshot.ID][0].Markets.MatchResult = nil

	svc, err := NewPricingService(testEngine(t, ""), snapshotRepo, priceRepo, quietLogger(), PricingOptions{Workers: 2})
	require.NoError(t, err)

	summary, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 0, summary.Priced)
	assert.Equal(t, 1, summary.Insufficient)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, priceRepo.count())
}

func TestPricingRunSuppressesDuplicates(t *testing.T) {
	snapshotRepo := &fakeSnapshotRepo{}
	priceRepo := &fakePriceRepo{}
	seedSnapshot(snapshotRepo, models.BookmakerSporty)

	svc, err := NewPricingService(testEngine(t, ""), snapshotRepo, priceRepo, quietLogger(), PricingOptions{Workers: 2})
	require.NoError(t, err)

	first, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Priced)

	// The fake keeps listing the same snapshot, as a repository would if
	// the listing query lagged the write. The dedupe cache must absorb it.
	second, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Priced)
	assert.Equal(t, 1, second.Duplicates)
	assert.Equal(t, 1, priceRepo.count())
}

func TestPricingRunDuplicateFromDatabase(t *testing.T) {
	snapshotRepo := &fakeSnapshotRepo{}
	priceRepo := &fakePriceRepo{}
	snapshot := seedSnapshot(snapshotRepo, models.BookmakerSporty)

	svc, err := NewPricingService(testEngine(t, ""), snapshotRepo, priceRepo, quietLogger(), PricingOptions{Workers: 1})
	require.NoError(t, err)

	// Pre-load the repo with the exact key the run will produce, leaving
	// the service cache cold. The unique index is the backstop.
	priceRepo.keys = map[string]bool{
		models.PricingKey(snapshot.EventID, snapshot.ID, svc.Engine().Version(), models.BookmakerSporty): true,
	}

	summary, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Priced)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 0, priceRepo.count())
}

func TestPricingRunFiltersSources(t *testing.T) {
	snapshotRepo := &fakeSnapshotRepo{}
	priceRepo := &fakePriceRepo{}
	seedSnapshot(snapshotRepo, models.BookmakerSporty, models.BookmakerBet9ja)

	svc, err := NewPricingService(testEngine(t, ""), snapshotRepo, priceRepo, quietLogger(), PricingOptions{
		Workers: 2,
		Sources: []models.Bookmaker{models.BookmakerSporty},
	})
	require.NoError(t, err)

	summary, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Priced)
	require.Equal(t, 1, priceRepo.count())
	assert.Equal(t, models.BookmakerSporty, priceRepo.records[0].Source)
}

func TestPricingRunQuoteLoadFailure(t *testing.T) {
	snapshotRepo := &fakeSnapshotRepo{}
	priceRepo := &fakePriceRepo{}
	seedSnapshot(snapshotRepo, models.BookmakerSporty)
	snapshotRepo.quotesErr = context.DeadlineExceeded

	svc, err := NewPricingService(testEngine(t, ""), snapshotRepo, priceRepo, quietLogger(), PricingOptions{Workers: 2})
	require.NoError(t, err)

	summary, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Pending)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, priceRepo.count())
}

func TestSwapEngineRepricesUnderNewVersion(t *testing.T) {
	snapshotRepo := &fakeSnapshotRepo{}
	priceRepo := &fakePriceRepo{}
	seedSnapshot(snapshotRepo, models.BookmakerSporty)

	svc, err := NewPricingService(testEngine(t, ""), snapshotRepo, priceRepo, quietLogger(), PricingOptions{Workers: 1})
	require.NoError(t, err)

	oldVersion := svc.Engine().Version()
	first, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Priced)

	svc.SwapEngine(testEngine(t, engine.CalibrationLogitV1), "calibration_refresh")
	newVersion := svc.Engine().Version()
	assert.NotEqual(t, oldVersion, newVersion)

	// Same snapshot, new engine version: a fresh record, not a duplicate
	second, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Priced)
	assert.Equal(t, 0, second.Duplicates)
	assert.Equal(t, 2, priceRepo.count())

	versions := map[string]bool{}
	for _, record := range priceRepo.records {
		versions[record.EngineVersion] = true
	}
	assert.True(t, versions[oldVersion])
	assert.True(t, versions[newVersion])
}

func TestNewPricingServiceDefaults(t *testing.T) {
	svc, err := NewPricingService(testEngine(t, ""), &fakeSnapshotRepo{}, &fakePriceRepo{}, quietLogger(), PricingOptions{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, svc.workers, 2)
	assert.Equal(t, 200, svc.batchSize)
	assert.True(t, svc.sources[models.BookmakerSporty])
	assert.True(t, svc.sources[models.BookmakerPawa])
	assert.True(t, svc.sources[models.BookmakerBet9ja])
}

func TestNewPricingServiceRequiresEngine(t *testing.T) {
	_, err := NewPricingService(nil, &fakeSnapshotRepo{}, &fakePriceRepo{}, quietLogger(), PricingOptions{})
	assert.Error(t, err)
}

func TestRunSummaryCounters(t *testing.T) {
	summary := NewRunSummary("barrier-dp+ratio-v2")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary.RecordPriced()
			summary.RecordDuplicate()
			summary.RecordInsufficient()
			summary.RecordFailure()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, summary.Priced)
	assert.Equal(t, 10, summary.Duplicates)
	assert.Equal(t, 10, summary.Insufficient)
	assert.Equal(t, 10, summary.Failed)
	assert.Equal(t, 40, summary.Processed())
	assert.Contains(t, summary.String(), "barrier-dp+ratio-v2")
}
