// Package config implements the compile-option configuration layer of
// SPEC_FULL.md section A.3, grounded on the teacher's internal/config:
// the same DefaultConfig -> file -> env -> explicit-API-call precedence
// chain, re-scoped from HTTP server settings to compiler retry budgets.
package config

import (
	"fmt"

	"github.com/mcclowes/vague/internal/constants"
	"github.com/mcclowes/vague/internal/observability"
)

// Config is the unified set of options one Compile call reads
// (SPEC_FULL.md section A.3).
type Config struct {
	Seed              *int64                      `json:"seed" yaml:"seed"`
	ConstraintRetries int                         `json:"constraint_retries" yaml:"constraint_retries"`
	ValidateRetries   int                         `json:"validate_retries" yaml:"validate_retries"`
	UniqueRetries     int                         `json:"unique_retries" yaml:"unique_retries"`
	Logging           observability.LoggingConfig `json:"logging" yaml:"logging"`
	ImportRoot        string                      `json:"import_root" yaml:"import_root"`
}

// DefaultConfig returns the default configuration (retry budgets matching
// internal/constants, logging matching observability.DefaultLoggingConfig).
func DefaultConfig() *Config {
	return &Config{
		ConstraintRetries: constants.DefaultConstraintRetries,
		ValidateRetries:   constants.DefaultValidateRetries,
		UniqueRetries:     constants.DefaultUniqueRetries,
		Logging:           observability.DefaultLoggingConfig(),
		ImportRoot:        "",
	}
}

// Validate checks retry budgets are non-negative and the logging
// configuration is well-formed, mirroring the teacher's
// ServerConfig.Validate() shape.
func (c *Config) Validate() error {
	if c.ConstraintRetries < 0 {
		return fmt.Errorf("constraint_retries must be non-negative, got %d", c.ConstraintRetries)
	}
	if c.ValidateRetries < 0 {
		return fmt.Errorf("validate_retries must be non-negative, got %d", c.ValidateRetries)
	}
	if c.UniqueRetries < 0 {
		return fmt.Errorf("unique_retries must be non-negative, got %d", c.UniqueRetries)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	return nil
}
