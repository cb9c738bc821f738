// Package config provides configuration management for the OneUp pricing service.
package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("pricingmethod", validatePricingMethod)
	v.RegisterValidation("calibration", validateCalibration)
	v.RegisterValidation("bookmakers", validateBookmakers)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	env := fl.Field().String()
	switch env {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	level := fl.Field().String()
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validatePricingMethod validates the lead strategy name
func validatePricingMethod(fl validator.FieldLevel) bool {
	method := fl.Field().String()
	switch method {
	case "barrier-dp", "monte-carlo":
		return true
	default:
		return false
	}
}

// validateCalibration validates the builtin calibration version name
func validateCalibration(fl validator.FieldLevel) bool {
	version := fl.Field().String()
	switch version {
	case "ratio-v2", "ratio-v1", "logit-v1":
		return true
	default:
		return false
	}
}

// validateBookmakers validates a list of price source names
func validateBookmakers(fl validator.FieldLevel) bool {
	sources := fl.Field().Interface().([]string)

	// Check if sources array is not empty
	if len(sources) == 0 {
		return false
	}

	// Check if all sources are valid
	for _, source := range sources {
		if !isKnownBookmaker(source) {
			return false
		}
	}
	return true
}

func isKnownBookmaker(name string) bool {
	switch name {
	case "sporty", "pawa", "bet9ja":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	// Validate connection pool settings
	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	// Validate the first-scorer provider rule
	for source, provider := range cfg.Engine.Providers {
		if !isKnownBookmaker(source) {
			return fmt.Errorf("unknown price source '%s' in engine providers", source)
		}
		if !isKnownBookmaker(provider) {
			return fmt.Errorf("unknown first-scorer provider '%s' for source '%s'", provider, source)
		}
	}

	// Tuning service must have an address when enabled
	if cfg.Tuning.Enabled && cfg.Tuning.URL == "" {
		return fmt.Errorf("tuning url is required when the tuning service is enabled")
	}

	// Validate production environment requirements
	if cfg.IsProduction() {
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
		if cfg.Engine.Method == "monte-carlo" && cfg.Engine.Seed != 0 {
			return fmt.Errorf("production environment must not pin the simulation seed")
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "pricingmethod":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: barrier-dp, monte-carlo\n", field)
		case "calibration":
			errMsg += fmt.Sprintf("- Field '%s' must be a builtin calibration version\n", field)
		case "bookmakers":
			errMsg += fmt.Sprintf("- Field '%s' must list known bookmakers only\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		// Production must have SSL enabled
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}

		// Production should not point at a test tuning service
		if cfg.Tuning.Enabled && isTestCredential(cfg.Tuning.URL) {
			return fmt.Errorf("production environment should not use a test tuning service URL")
		}
	}

	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
