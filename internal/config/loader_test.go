package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mcclowes/vague/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, constants.DefaultConstraintRetries, cfg.ConstraintRetries)
	assert.Equal(t, constants.DefaultValidateRetries, cfg.ValidateRetries)
	assert.Equal(t, constants.DefaultUniqueRetries, cfg.UniqueRetries)
}

func TestLoadConfigAppliesEnvOverrides(t *testing.T) {
	t.Setenv(constants.EnvConstraintRetries, "7")
	t.Setenv(constants.EnvLogLevel, "debug")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ConstraintRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vague.yaml")
	err := os.WriteFile(path, []byte("constraint_retries: 3\nunique_retries: 9\n"), 0o600)
	require.NoError(t, err)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ConstraintRetries)
	assert.Equal(t, 9, cfg.UniqueRetries)
}

func TestLoadConfigCLIFlagsTakePrecedenceOverEnv(t *testing.T) {
	t.Setenv(constants.EnvConstraintRetries, "7")
	retries := 42
	cfg, err := LoadConfig("", &CLIFlags{ConstraintRetries: &retries})
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.ConstraintRetries)
}

func TestLoadConfigRejectsNegativeRetries(t *testing.T) {
	t.Setenv(constants.EnvConstraintRetries, "-1")
	_, err := LoadConfig("", nil)
	require.Error(t, err)
}

func TestLoadConfigRejectsUnsupportedFileFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vague.toml")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o600))
	_, err := LoadConfig(path, nil)
	require.Error(t, err)
}
