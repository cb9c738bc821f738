// Package main provides the oneup command line tool for ad-hoc pricing
// and calibration inspection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/oneup/internal/config"
	"github.com/yourusername/oneup/internal/database"
	"github.com/yourusername/oneup/internal/engine"
	"github.com/yourusername/oneup/internal/logger"
	"github.com/yourusername/oneup/internal/models"
	"github.com/yourusername/oneup/internal/repository"
	"github.com/yourusername/oneup/internal/service"
	"github.com/yourusername/oneup/internal/tuning"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// calibrationFamily names the parameter family pulled from the tuning
// service.
const calibrationFamily = "lead-by-one"

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config

	priceSource      string
	priceMethod      string
	priceCalibration string
	priceMargin      float64
	pricePretty      bool

	sweepTimeoutSeconds int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")

	priceCmd.Flags().StringVarP(&priceSource, "source", "s", "sporty", "Bookmaker the price is composed for")
	priceCmd.Flags().StringVarP(&priceMethod, "method", "m", "", "Lead strategy override (barrier-dp or monte-carlo)")
	priceCmd.Flags().StringVar(&priceCalibration, "calibration", "", "Calibration override (ratio-v2, ratio-v1 or logit-v1)")
	priceCmd.Flags().Float64Var(&priceMargin, "margin", -1, "Margin fraction applied to both sides")
	priceCmd.Flags().BoolVar(&pricePretty, "pretty", false, "Indent the JSON output")

	sweepCmd.Flags().IntVarP(&sweepTimeoutSeconds, "timeout", "t", 300, "Sweep deadline in seconds")
}

var rootCmd = &cobra.Command{
	Use:   "oneup",
	Short: "Price lead-by-one soccer markets",
	Long:  `Prices the lead-by-one market from bookmaker odds: infers scoring rates, computes ever-lead probabilities and composes calibrated odds.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel)
		return nil
	},
}

var priceCmd = &cobra.Command{
	Use:   "price [market-set.json]",
	Short: "Price one market set from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := ""
		if len(args) == 1 {
			input = args[0]
		}
		return priceMarketSet(input)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one pricing sweep over the unpriced snapshot board",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep()
	},
}

var calibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Inspect the configured and latest tuned calibration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showCalibration()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("oneup %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	rootCmd.AddCommand(priceCmd, sweepCmd, calibrationCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	return err
}

// priceMarketSet prices a single market set without touching the
// database. Empty input path reads stdin.
func priceMarketSet(inputPath string) error {
	var (
		data []byte
		err  error
	)
	if inputPath == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(inputPath)
	}
	if err != nil {
		return fmt.Errorf("failed to read market set: %w", err)
	}

	var set models.MarketSet
	if err := json.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("failed to parse market set: %w", err)
	}

	engCfg := buildEngineConfig(cfg)
	if priceMethod != "" {
		engCfg.Method = priceMethod
	}
	if priceCalibration != "" {
		engCfg.Calibration = priceCalibration
	}
	if priceMargin >= 0 {
		engCfg.Margins = engine.Margins{Default: priceMargin}
	}

	eng, err := engine.NewEngine(engCfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to build pricing engine: %w", err)
	}

	record, err := eng.Price(&set, models.Bookmaker(priceSource))
	if err != nil {
		return fmt.Errorf("pricing failed: %w", err)
	}

	var out []byte
	if pricePretty {
		out, err = json.MarshalIndent(record, "", "  ")
	} else {
		out, err = json.Marshal(record)
	}
	if err != nil {
		return fmt.Errorf("failed to encode price record: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

// runSweep prices the pending snapshot board once and prints the run
// summary.
func runSweep() error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(sweepTimeoutSeconds)*time.Second)
	defer cancel()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	eng, err := engine.NewEngine(buildEngineConfig(cfg), appLog)
	if err != nil {
		return fmt.Errorf("failed to build pricing engine: %w", err)
	}

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
		return fmt.Errorf("failed to create pricing service: %w", err)
	}

	summary, err := pricingSvc.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("pricing sweep failed: %w", err)
	}

	fmt.Println("\n=== Pricing Sweep Report ===")
	fmt.Printf("Engine Version: %s\n", summary.EngineVersion)
	fmt.Printf("Pending Units: %d\n", summary.Pending)
	fmt.Printf("Priced: %d\n", summary.Priced)
	fmt.Printf("Duplicates: %d\n", summary.Duplicates)
	fmt.Printf("Insufficient Data: %d\n", summary.Insufficient)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Printf("Duration: %v\n", summary.Duration)

	return nil
}

// showCalibration prints the configured calibration and, when a tuning
// service is configured, the latest fitted parameters it serves.
func showCalibration() error {
	fmt.Println("\n=== Calibration Status ===")
	fmt.Printf("Configured calibration: %s\n", cfg.Engine.Calibration)
	fmt.Printf("Configured method: %s\n", cfg.Engine.Method)

	eng, err := engine.NewEngine(buildEngineConfig(cfg), appLog)
	if err != nil {
		return fmt.Errorf("failed to build pricing engine: %w", err)
	}
	fmt.Printf("Engine version: %s\n", eng.Version())

	if cfg.Tuning.URL == "" {
		fmt.Println("\nTuning service: not configured")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientCfg := tuning.DefaultClientConfig(cfg.Tuning.URL)
	clientCfg.APIKey = cfg.Tuning.APIKey
	client, err := tuning.NewClient(clientCfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to create tuning client: %w", err)
	}
	defer client.Close()

	fmt.Printf("\nTuning service: %s\n", cfg.Tuning.URL)
	params, err := client.GetParams(ctx, calibrationFamily)
	if err != nil {
		fmt.Printf("Status: ❌ UNAVAILABLE\n")
		fmt.Printf("   Error: %v\n", err)
		return nil
	}

	fmt.Println("Status: ✓ ONLINE")
	fmt.Printf("\nLatest fitted parameters:\n")
	fmt.Printf("  Version: %s\n", params.Version)
	fmt.Printf("  Fitted At: %s\n", params.FittedAt.Format(time.RFC3339))
	if params.HasCurves() {
		fmt.Printf("  Weaker Curve Knots: %d\n", len(params.WeakerCurve))
		fmt.Printf("  Stronger Curve Knots: %d\n", len(params.StrongerCurve))
	}
	if params.HasLogit() {
		fmt.Printf("  Logit A: %g\n", params.LogitA)
		fmt.Printf("  Logit B: %g\n", params.LogitB)
	}

	if cal, err := engine.FromParams(*params); err != nil {
		fmt.Printf("  Usable: ❌ %v\n", err)
	} else {
		fmt.Printf("  Usable: ✓ would price as %s+%s\n", cfg.Engine.Method, cal.Name())
	}

	return nil
}

// buildEngineConfig maps the application configuration onto the engine
// knobs. Full config validation is skipped for offline pricing, so engine
// construction re-checks what it consumes.
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
