// Package main provides the entry point for the lead-by-one pricing daemon.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oneup/internal/config"
	"github.com/yourusername/oneup/internal/database"
	"github.com/yourusername/oneup/internal/engine"
	"github.com/yourusername/oneup/internal/health"
	"github.com/yourusername/oneup/internal/logger"
	"github.com/yourusername/oneup/internal/metrics"
	"github.com/yourusername/oneup/internal/models"
	"github.com/yourusername/oneup/internal/repository"
	"github.com/yourusername/oneup/internal/scheduler"
	"github.com/yourusername/oneup/internal/service"
	"github.com/yourusername/oneup/internal/tuning"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// calibrationFamily names the parameter family this daemon pulls from the
// tuning service.
const calibrationFamily = "lead-by-one"

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults(os.Getenv("ONEUP_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
		"commit":      GitCommit,
	}).Info("OneUp pricing daemon starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the metrics registry before anything records
	metrics.InitRegistry()

	// Initialize database connection
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	appLog.Info("Database connection established")

	// Initialize repositories
	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	// Build the pricing engine from configuration
	engCfg := buildEngineConfig(cfg)
	eng, err := engine.NewEngine(engCfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to build pricing engine")
	}
	appLog.WithField("engine_version", eng.Version()).Info("Pricing engine initialized")

	// Pricing service over the snapshot board
	sources := make([]models.Bookmaker, 0, len(cfg.Pricing.Sources))
	for _, src := range cfg.Pricing.Sources {
		sources = append(sources, models.Bookmaker(src))
	}

	pricingSvc, err := service.NewPricingService(eng, repos.Snapshot, repos.Price, appLog, service.PricingOptions{
		Workers:   cfg.Pricing.Workers,
		BatchSize: cfg.Pricing.BatchSize,
		DedupTTL:  time.Duration(cfg.Pricing.DedupTTLSeconds) * time.Second,
		Sources:   sources,
	})
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create pricing service")
	}

	// Calibration tuning client, when enabled
	var calibrationJob scheduler.CalibrationRefresher
	if cfg.Tuning.Enabled && cfg.Tuning.URL != "" {
		clientCfg := tuning.DefaultClientConfig(cfg.Tuning.URL)
		clientCfg.APIKey = cfg.Tuning.APIKey
		clientCfg.Timeout = time.Duration(cfg.Tuning.TimeoutSeconds) * time.Second
		clientCfg.MaxRetries = cfg.Tuning.RetryAttempts
		clientCfg.RequestsPerSecond = cfg.Tuning.RequestsPerSecond
		clientCfg.Burst = cfg.Tuning.Burst
		clientCfg.FailureThreshold = cfg.Tuning.FailureThreshold
		clientCfg.Cooldown = time.Duration(cfg.Tuning.CooldownSeconds) * time.Second

		tuningClient, err := tuning.NewClient(clientCfg, appLog)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to create tuning client")
		}
		defer tuningClient.Close()

		cached := tuning.NewCachedClient(tuningClient, time.Duration(cfg.Tuning.CacheTTLSeconds)*time.Second, appLog)
		refresher := tuning.NewRefresher(cached, pricingSvc, engCfg, calibrationFamily, appLog)

		// Best-effort initial pull; the builtin calibration keeps pricing
		// until the tuning service answers.
		refreshCtx, refreshCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := refresher.Refresh(refreshCtx); err != nil {
			appLog.WithError(err).Warn("Initial calibration fetch failed, pricing with builtin calibration")
		}
		refreshCancel()

		calibrationJob = refresher
		appLog.WithField("tuning_url", cfg.Tuning.URL).Info("Tuning client initialized")
	} else {
		appLog.Info("Tuning disabled; pricing with builtin calibration")
	}

	// Schedule the recurring jobs
	sched := scheduler.NewScheduler(pricingSvc, calibrationJob, appLog)
	if err := sched.SchedulePricingSweeps(cfg.Scheduler.PricingIntervalSeconds); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule pricing sweeps")
	}
	if calibrationJob != nil {
		if err := sched.ScheduleCalibrationRefresh(cfg.Scheduler.CalibrationRefreshCron); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule calibration refresh")
		}
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}

	// Health check server
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        strconv.Itoa(cfg.Health.Port),
		Logger:      appLog,
		DB:          db,
		Engine:      pricingSvc,
		Scheduler:   sched,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	// Metrics endpoint
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:         ":" + strconv.Itoa(cfg.Metrics.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			appLog.WithFields(logrus.Fields{
				"port": cfg.Metrics.Port,
				"path": cfg.Metrics.Path,
			}).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	healthServer.SetReady(true)

	// Price the backlog immediately instead of waiting for the first tick
	go func() {
		runCtx, runCancel := context.WithTimeout(ctx, time.Duration(cfg.Scheduler.PricingIntervalSeconds)*time.Second)
		defer runCancel()

		summary, err := pricingSvc.RunOnce(runCtx)
		if err != nil {
			appLog.WithError(err).Warn("Startup pricing sweep interrupted")
		}
		if summary != nil {
			appLog.Infof("Startup pricing sweep finished: %s", summary.String())
		}
	}()

	appLog.WithFields(logrus.Fields{
		"engine_version":   pricingSvc.EngineVersion(),
		"pricing_interval": cfg.Scheduler.PricingIntervalSeconds,
		"sources":          cfg.Pricing.Sources,
		"tuning_enabled":   calibrationJob != nil,
	}).Info("Pricing daemon is running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	// Graceful shutdown
	appLog.Info("Initiating graceful shutdown...")
	healthServer.SetReady(false)

	// Cancel context to stop all goroutines
	cancel()

	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error during scheduler shutdown")
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("Error during metrics server shutdown")
		}
		shutdownCancel()
	}

	// Give components time to cleanup
	time.Sleep(2 * time.Second)

	appLog.Info("OneUp pricing daemon shut down successfully")
}

// buildEngineConfig maps the application configuration onto the engine
// knobs. Validation has already run, so values arrive well-formed.
func buildEngineConfig(cfg *config.Config) engine.Config {
	engCfg := engine.Config{
		Method:        cfg.Engine.Method,
		Simulations:   cfg.Engine.Simulations,
		MatchMinutes:  cfg.Engine.MatchMinutes,
		Seed:          cfg.Engine.Seed,
		MaxGoals:      cfg.Engine.MaxGoals,
		Minimizer:     cfg.Engine.Minimizer,
		Calibration:   cfg.Engine.Calibration,
		OddsPrecision: int32(cfg.Engine.OddsPrecision),
		Margins: engine.Margins{
			Default: cfg.Engine.Margins.Default,
			Home:    cfg.Engine.Margins.Home,
			Away:    cfg.Engine.Margins.Away,
		},
	}

	if len(cfg.Engine.Providers) > 0 {
		providers := make(engine.ShareProviders, len(cfg.Engine.Providers))
		for source, provider := range cfg.Engine.Providers {
			providers[models.Bookmaker(source)] = models.Bookmaker(provider)
		}
		engCfg.Providers = providers
	}

	return engCfg
}
