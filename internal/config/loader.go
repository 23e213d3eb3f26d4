package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mcclowes/vague/internal/constants"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// CLIFlags carries CLI flag values that may override configuration, kept
// as a separate struct (rather than importing pflag.FlagSet directly) so
// this package's precedence logic is testable without a real flag set,
// matching the teacher's loader.go design.
type CLIFlags struct {
	Seed              *int64
	ConstraintRetries *int
	ValidateRetries   *int
	UniqueRetries     *int
	LogLevel          *string
	ImportRoot        *string
}

// LoadConfig loads configuration with precedence:
//  1. Explicit CLI flags (highest priority)
//  2. Environment variables
//  3. Configuration file values
//  4. Default configuration values (lowest priority)
func LoadConfig(configFile string, cliFlags *CLIFlags) (*Config, error) {
	cfg := DefaultConfig()

	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		mergeConfig(cfg, fileConfig)
	}

	loadFromEnv(cfg)

	if cliFlags != nil {
		overrideWithCLI(cfg, cliFlags)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFromFile(filePath string) (*Config, error) {
	if !filepath.IsAbs(filePath) {
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
		}
		filePath = absPath
	}
	if err := validateFilePath(filePath); err != nil {
		return nil, fmt.Errorf("invalid config file path %s: %w", filePath, err)
	}

	data, err := os.ReadFile(filePath) // #nosec G304 - file path validated by validateFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", filepath.Ext(filePath))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	if val := os.Getenv(constants.EnvSeed); val != "" {
		if seed, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Seed = &seed
		}
	}
	if val := os.Getenv(constants.EnvConstraintRetries); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.ConstraintRetries = n
		}
	}
	if val := os.Getenv(constants.EnvValidateRetries); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.ValidateRetries = n
		}
	}
	if val := os.Getenv(constants.EnvUniqueRetries); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.UniqueRetries = n
		}
	}
	if val := os.Getenv(constants.EnvLogLevel); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv(constants.EnvImportRoot); val != "" {
		cfg.ImportRoot = val
	}
}

func overrideWithCLI(cfg *Config, flags *CLIFlags) {
	if flags.Seed != nil && isFlagSet("seed") {
		cfg.Seed = flags.Seed
	}
	if flags.ConstraintRetries != nil && isFlagSet("constraint-retries") {
		cfg.ConstraintRetries = *flags.ConstraintRetries
	}
	if flags.ValidateRetries != nil && isFlagSet("validate-retries") {
		cfg.ValidateRetries = *flags.ValidateRetries
	}
	if flags.UniqueRetries != nil && isFlagSet("unique-retries") {
		cfg.UniqueRetries = *flags.UniqueRetries
	}
	if flags.LogLevel != nil && isFlagSet("log-level") && *flags.LogLevel != "" {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.ImportRoot != nil && isFlagSet("import-root") && *flags.ImportRoot != "" {
		cfg.ImportRoot = *flags.ImportRoot
	}
}

// isFlagSet checks if a flag is set (changed) in pflag, or returns true if
// pflag is not initialized (so this logic is exercised from tests without a
// real CommandLine flag set).
func isFlagSet(flagName string) bool {
	flag := pflag.Lookup(flagName)
	if flag == nil {
		return true
	}
	return flag.Changed
}

func mergeConfig(base *Config, file *Config) {
	if file == nil {
		return
	}
	if file.Seed != nil {
		base.Seed = file.Seed
	}
	if file.ConstraintRetries != 0 {
		base.ConstraintRetries = file.ConstraintRetries
	}
	if file.ValidateRetries != 0 {
		base.ValidateRetries = file.ValidateRetries
	}
	if file.UniqueRetries != 0 {
		base.UniqueRetries = file.UniqueRetries
	}
	if file.Logging.Level != "" {
		base.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" {
		base.Logging.Format = file.Logging.Format
	}
	if file.ImportRoot != "" {
		base.ImportRoot = file.ImportRoot
	}
}

// validateFilePath prevents directory traversal on a config file path,
// kept from the teacher's loader.go unchanged.
func validateFilePath(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains directory traversal attempts")
	}
	return nil
}
