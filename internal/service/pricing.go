package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/oneup/internal/engine"
	"github.com/yourusername/oneup/internal/logger"
	"github.com/yourusername/oneup/internal/metrics"
	"github.com/yourusername/oneup/internal/models"
	"github.com/yourusername/oneup/internal/repository"
)

// PricingOptions configures a PricingService
type PricingOptions struct {
	// Workers bounds the parallel pricing goroutines. Zero selects
	// max(2, NumCPU).
	Workers int
	// BatchSize caps how many snapshots one run picks up
	BatchSize int
	// DedupTTL is how long written keys stay in the suppression cache
	DedupTTL time.Duration
	// Sources lists the bookmakers to price for. Empty means all known.
	Sources []models.Bookmaker
}

// PricingService runs the snapshot pricing workflow: list pending work,
// price each (snapshot, source) unit across a bounded worker pool, and
// persist results through a single writer goroutine. Per-unit problems are
// counted outcomes, never run failures.
type PricingService struct {
	mu           sync.RWMutex
	engine       *engine.Engine
	snapshotRepo repository.SnapshotRepository
	priceRepo    repository.PriceRepository
	dedupe       *cache.Cache
	log          *logger.PricingLogger
	workers      int
	batchSize    int
	sources      map[models.Bookmaker]bool
}

// pricingUnit pairs a snapshot with one bookmaker's market set
type pricingUnit struct {
	snapshot *models.MarketSnapshot
	quote    *models.MarketQuote
}

// NewPricingService creates a pricing service around an engine and the
// snapshot/price repositories
func NewPricingService(
	eng *engine.Engine,
	snapshotRepo repository.SnapshotRepository,
	priceRepo repository.PriceRepository,
	baseLogger *logrus.Logger,
	opts PricingOptions,
) (*PricingService, error) {
	if eng == nil {
		return nil, fmt.Errorf("pricing engine is required")
	}
	if snapshotRepo == nil || priceRepo == nil {
		return nil, fmt.Errorf("snapshot and price repositories are required")
	}
	if baseLogger == nil {
		baseLogger = logrus.New()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 2 {
			workers = 2
		}
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	dedupTTL := opts.DedupTTL
	if dedupTTL <= 0 {
		dedupTTL = 24 * time.Hour
	}

	sources := make(map[models.Bookmaker]bool)
	if len(opts.Sources) == 0 {
		sources[models.BookmakerSporty] = true
		sources[models.BookmakerPawa] = true
		sources[models.BookmakerBet9ja] = true
	} else {
		for _, src := range opts.Sources {
			sources[src] = true
		}
	}

	return &PricingService{
		engine:       eng,
		snapshotRepo: snapshotRepo,
		priceRepo:    priceRepo,
		dedupe:       cache.New(dedupTTL, 10*time.Minute),
		log:          logger.NewPricingLogger(baseLogger),
		workers:      workers,
		batchSize:    batchSize,
		sources:      sources,
	}, nil
}

// Engine returns the engine currently serving pricing runs
func (s *PricingService) Engine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// EngineVersion returns the version stamp of the active engine
func (s *PricingService) EngineVersion() string {
	return s.Engine().Version()
}

// SwapEngine replaces the pricing engine, typically after a calibration
// refresh changed the active curve. Runs already in flight keep the engine
// they started with; the version bump makes the next run reprice.
func (s *PricingService) SwapEngine(next *engine.Engine, trigger string) {
	if next == nil {
		return
	}

	s.mu.Lock()
	prev := s.engine
	s.engine = next
	s.mu.Unlock()

	if prev.Version() != next.Version() {
		s.log.LogEngineSwap(prev.Version(), next.Version(), trigger)
	}
}

// RunOnce prices every pending snapshot under the current engine version
// and reports the outcome counts
func (s *PricingService) RunOnce(ctx context.Context) (*RunSummary, error) {
	start := time.Now()
	eng := s.Engine()
	version := eng.Version()

	snapshots, err := s.snapshotRepo.ListUnpriced(ctx, version, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpriced snapshots: %w", err)
	}

	summary := NewRunSummary(version)
	units := s.collectUnits(ctx, snapshots, summary)
	summary.Pending = len(units)

	metrics.UpdatePendingUnits(float64(len(units)))
	s.log.LogRunStarted(version, len(units), s.workers)

	jobs := make(chan pricingUnit)
	results := make(chan *models.PriceRecord, s.workers)

	var workerWG sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			s.priceWorker(eng, jobs, results, summary)
		}()
	}
	metrics.UpdateActiveWorkers(float64(s.workers))

	// Single writer: the only goroutine touching the price table during
	// the run.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeRecords(ctx, results, summary)
	}()

feed:
	for _, unit := range units {
		select {
		case jobs <- unit:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)

	workerWG.Wait()
	close(results)
	<-writerDone

	metrics.UpdateActiveWorkers(0)
	metrics.UpdatePendingUnits(0)

	summary.Duration = time.Since(start)
	metrics.RecordPricingRun(summary.Duration.Seconds())
	s.log.LogRunCompleted(version, summary.Priced, summary.Duplicates, summary.Insufficient, summary.Failed,
		float64(summary.Duration.Milliseconds()))

	return summary, ctx.Err()
}

// collectUnits expands snapshots into (snapshot, source) pricing units,
// keeping only quotes from configured sources. A snapshot whose quotes
// cannot be loaded counts as one failure and the run moves on.
func (s *PricingService) collectUnits(ctx context.Context, snapshots []*models.MarketSnapshot, summary *RunSummary) []pricingUnit {
	var units []pricingUnit
	for _, snapshot := range snapshots {
		quotes, err := s.snapshotRepo.GetQuotes(ctx, snapshot.ID)
		if err != nil {
			summary.RecordFailure()
			metrics.RecordPricingFailure()
			s.log.WithError(err).WithField("snapshot_id", snapshot.ID).Warn("Failed to load quotes for snapshot")
			continue
		}
		for _, quote := range quotes {
			if !s.sources[quote.Bookmaker] {
				continue
			}
			units = append(units, pricingUnit{snapshot: snapshot, quote: quote})
		}
	}
	return units
}

// priceWorker prices units until the jobs channel closes
func (s *PricingService) priceWorker(eng *engine.Engine, jobs <-chan pricingUnit, results chan<- *models.PriceRecord, summary *RunSummary) {
	for unit := range jobs {
		unitStart := time.Now()
		record, err := eng.Price(&unit.quote.Markets, unit.quote.Bookmaker)
		metrics.RecordUnitPricing(time.Since(unitStart).Seconds())

		if errors.Is(err, models.ErrInsufficientData) {
			summary.RecordInsufficient()
			metrics.RecordInsufficientData()
			s.log.LogUnitSkipped(unit.snapshot.EventID.String(), unit.snapshot.ID.String(),
				string(unit.quote.Bookmaker), "insufficient_data")
			continue
		}
		if err != nil {
			summary.RecordFailure()
			metrics.RecordPricingFailure()
			s.log.WithError(err).WithFields(logrus.Fields{
				"snapshot_id": unit.snapshot.ID,
				"source":      unit.quote.Bookmaker,
			}).Error("Failed to price unit")
			continue
		}

		record.EventID = unit.snapshot.EventID
		record.SnapshotID = unit.snapshot.ID
		results <- record
	}
}

// writeRecords drains priced records to the database. Duplicate keys are a
// counted outcome: the cache suppresses repeats cheaply and the unique
// index catches anything the cache has forgotten.
func (s *PricingService) writeRecords(ctx context.Context, results <-chan *models.PriceRecord, summary *RunSummary) {
	for record := range results {
		key := record.Key()
		if _, found := s.dedupe.Get(key); found {
			summary.RecordDuplicate()
			metrics.RecordDuplicateSkipped()
			continue
		}

		writeStart := time.Now()
		err := s.priceRepo.Insert(ctx, record)
		metrics.RecordWrite(time.Since(writeStart).Seconds())

		if errors.Is(err, models.ErrDuplicateKey) {
			s.dedupe.SetDefault(key, true)
			summary.RecordDuplicate()
			metrics.RecordDuplicateSkipped()
			continue
		}
		if err != nil {
			summary.RecordFailure()
			metrics.RecordPricingFailure()
			s.log.WithError(err).WithField("key", key).Error("Failed to write price record")
			continue
		}

		s.dedupe.SetDefault(key, true)
		summary.RecordPriced()
		metrics.RecordPriceWritten()
		s.log.LogUnitPriced(record.EventID.String(), record.SnapshotID.String(), string(record.Source),
			record.Diagnostics.ShareSource, record.HomePrice.Margin, record.AwayPrice.Margin)
	}
}
