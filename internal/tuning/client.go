package tuning

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/oneup/internal/logger"
	"github.com/yourusername/oneup/internal/metrics"
	"github.com/yourusername/oneup/internal/models"
)

// ClientConfig holds configuration for the tuning service client
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RequestsPerSecond float64 // requests per second
	Burst             int
	FailureThreshold  int // consecutive failures before the circuit opens
	Cooldown          time.Duration
}

// DefaultClientConfig returns recommended defaults for a base URL
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		RetryWaitMin:      100 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		RequestsPerSecond: 2.0,
		Burst:             1,
		FailureThreshold:  5,
		Cooldown:          60 * time.Second,
	}
}

// Client fetches calibration params over HTTP with retries, rate limiting
// and a consecutive-failure circuit breaker. The breaker refuses calls for
// one cooldown period, then lets a trial request through.
type Client struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	cfg     ClientConfig
	log     *logger.TuningLogger

	mu                sync.Mutex
	consecutiveErrors int
	openUntil         time.Time
}

// NewClient creates a tuning service client
func NewClient(cfg ClientConfig, baseLogger *logrus.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tuning service base URL is required")
	}
	if baseLogger == nil {
		baseLogger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2.0
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	return &Client{
		client:  retryClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cfg:     cfg,
		log:     logger.NewTuningLogger(baseLogger),
	}, nil
}

// GetParams fetches the latest calibration params for a named family
func (c *Client) GetParams(ctx context.Context, family string) (*models.CalibrationParams, error) {
	if err := c.allow(); err != nil {
		metrics.RecordTuningFetch("circuit_open", 0)
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	url := fmt.Sprintf("%s/calibrations/%s/latest", c.cfg.BaseURL, family)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build params request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	retryReq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap params request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(retryReq)
	latency := time.Since(start)
	if err != nil {
		c.recordFailure(err)
		metrics.RecordTuningFetch("error", latency.Seconds())
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("%w: unexpected status %d", ErrServiceUnavailable, resp.StatusCode)
		c.recordFailure(err)
		metrics.RecordTuningFetch("error", latency.Seconds())
		return nil, err
	}

	var params models.CalibrationParams
	if err := json.NewDecoder(resp.Body).Decode(&params); err != nil {
		decodeErr := fmt.Errorf("%w: %v", ErrInvalidParams, err)
		c.recordFailure(decodeErr)
		metrics.RecordTuningFetch("error", latency.Seconds())
		return nil, decodeErr
	}
	if !params.HasCurves() && !params.HasLogit() {
		err := fmt.Errorf("%w: no curves and no logit coefficients", ErrInvalidParams)
		c.recordFailure(err)
		metrics.RecordTuningFetch("error", latency.Seconds())
		return nil, err
	}

	c.recordSuccess()
	metrics.RecordTuningFetch("success", latency.Seconds())
	c.log.LogParamsFetch(params.Version, false, float64(latency.Milliseconds()))

	return &params, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// allow reports whether the circuit admits a call right now
func (c *Client) allow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.openUntil) {
		return ErrCircuitOpen
	}
	return nil
}

func (c *Client) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveErrors++
	if c.consecutiveErrors >= c.cfg.FailureThreshold && !time.Now().Before(c.openUntil) {
		c.openUntil = time.Now().Add(c.cfg.Cooldown)
		metrics.RecordTuningCircuitBreakerTrip()
		c.log.LogCircuitBreakerEvent("open", err.Error())
	}
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.consecutiveErrors >= c.cfg.FailureThreshold {
		c.log.LogCircuitBreakerEvent("closed", "fetch succeeded after cooldown")
	}
	c.consecutiveErrors = 0
	c.openUntil = time.Time{}
}
