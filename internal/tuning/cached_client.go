package tuning

import (
	"context"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/oneup/internal/logger"
	"github.com/yourusername/oneup/internal/metrics"
	"github.com/yourusername/oneup/internal/models"
)

// ParamsSource is anything that can produce calibration params for a
// family. Satisfied by Client and CachedClient.
type ParamsSource interface {
	GetParams(ctx context.Context, family string) (*models.CalibrationParams, error)
}

// CachedClient wraps Client with a TTL cache keyed by family, so the
// scheduler can refresh aggressively without hammering the service.
type CachedClient struct {
	client ParamsSource
	cache  *cache.Cache
	ttl    time.Duration
	log    *logger.TuningLogger

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// NewCachedClient creates a cached tuning client with the given TTL
func NewCachedClient(client ParamsSource, ttl time.Duration, baseLogger *logrus.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if baseLogger == nil {
		baseLogger = logrus.New()
	}

	return &CachedClient{
		client: client,
		cache:  cache.New(ttl, ttl*2),
		ttl:    ttl,
		log:    logger.NewTuningLogger(baseLogger),
	}
}

// GetParams retrieves params from cache or the underlying client
func (c *CachedClient) GetParams(ctx context.Context, family string) (*models.CalibrationParams, error) {
	if cached, found := c.cache.Get(family); found {
		if params, ok := cached.(*models.CalibrationParams); ok {
			c.recordHit()
			metrics.RecordTuningFetch("cache_hit", 0)
			c.log.LogParamsFetch(params.Version, true, 0)
			return params, nil
		}
	}

	c.recordMiss()
	params, err := c.client.GetParams(ctx, family)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(family, params)
	return params, nil
}

// Invalidate drops the cached params for a family
func (c *CachedClient) Invalidate(family string) {
	c.cache.Delete(family)
}

// Clear flushes the cache and resets counters
func (c *CachedClient) Clear() {
	c.cache.Flush()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = 0
	c.misses = 0
}

// Stats returns cache hit statistics
func (c *CachedClient) Stats() (hits, misses uint64, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hits = c.hits
	misses = c.misses
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (c *CachedClient) recordHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits++
}

func (c *CachedClient) recordMiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
}
