// Package config provides configuration management for the OneUp pricing service.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	Pricing   PricingConfig   `mapstructure:"pricing" validate:"required"`
	Tuning    TuningConfig    `mapstructure:"tuning" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Health    HealthConfig    `mapstructure:"health" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// EngineConfig represents the pricing engine configuration
type EngineConfig struct {
	Method        string            `mapstructure:"method" validate:"required,pricingmethod"`
	Simulations   int               `mapstructure:"simulations" validate:"required,gt=0"`
	MatchMinutes  float64           `mapstructure:"match_minutes" validate:"required,gt=0"`
	Seed          int64             `mapstructure:"seed" validate:"gte=0"`
	MaxGoals      int               `mapstructure:"max_goals" validate:"required,gt=0"`
	Minimizer     string            `mapstructure:"minimizer" validate:"required,oneof=golden grid"`
	Calibration   string            `mapstructure:"calibration" validate:"required,calibration"`
	OddsPrecision int               `mapstructure:"odds_precision" validate:"required,min=1,max=4"`
	Margins       MarginsConfig     `mapstructure:"margins"`
	Providers     map[string]string `mapstructure:"providers"`
}

// MarginsConfig represents the margin fractions shaded off fair odds.
// Side-specific values override the default when set.
type MarginsConfig struct {
	Default float64 `mapstructure:"default" validate:"gte=0,lt=1"`
	Home    float64 `mapstructure:"home" validate:"gte=0,lt=1"`
	Away    float64 `mapstructure:"away" validate:"gte=0,lt=1"`
}

// PricingConfig represents the pricing run orchestration configuration
type PricingConfig struct {
	Workers         int      `mapstructure:"workers" validate:"gte=0"`
	BatchSize       int      `mapstructure:"batch_size" validate:"required,gt=0"`
	DedupTTLSeconds int      `mapstructure:"dedup_ttl_seconds" validate:"required,gt=0"`
	Sources         []string `mapstructure:"sources" validate:"required,min=1,bookmakers"`
}

// TuningConfig represents the calibration tuning service configuration
type TuningConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	URL               string  `mapstructure:"url" validate:"omitempty,url"`
	APIKey            string  `mapstructure:"api_key"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `mapstructure:"burst" validate:"required,gt=0"`
	FailureThreshold  int     `mapstructure:"failure_threshold" validate:"required,gt=0"`
	CooldownSeconds   int     `mapstructure:"cooldown_seconds" validate:"required,gt=0"`
}

// SchedulerConfig represents the background job scheduling configuration
type SchedulerConfig struct {
	PricingIntervalSeconds int    `mapstructure:"pricing_interval_seconds" validate:"required,gt=0"`
	CalibrationRefreshCron string `mapstructure:"calibration_refresh_cron" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health endpoint configuration
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetTuningURL returns the calibration tuning service base URL
func (c *Config) GetTuningURL() string {
	return c.Tuning.URL
}
