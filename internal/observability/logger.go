// Package observability keeps the teacher's zap-backed structured logger.
// The HTTP-serving metrics/tracing/health endpoints it also carried are
// dropped (see DESIGN.md): a compiler invocation has no running process to
// export metrics from or trace spans across.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig controls the compile façade's logger: one Logger per
// Compiler, built by vague.New and reused by each of its Compile calls, not
// a process-wide singleton.
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Format      string `json:"format" yaml:"format"`
	Development bool   `json:"development" yaml:"development"`
}

// DefaultLoggingConfig mirrors the teacher's DefaultLoggingConfig defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{Level: "info", Format: "json", Development: false}
}

// Validate checks Level/Format are one of the recognized values.
func (l LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalidFieldError("level", l.Level, "debug, info, warn, error")
	}
	switch l.Format {
	case "json", "console":
	default:
		return invalidFieldError("format", l.Format, "json, console")
	}
	return nil
}

func invalidFieldError(field, got, want string) error {
	return &validationError{field: field, got: got, want: want}
}

type validationError struct {
	field, got, want string
}

func (e *validationError) Error() string {
	return "invalid " + e.field + ": " + e.got + ", must be one of: " + e.want
}

// Logger wraps *zap.Logger the way the teacher does, so call sites use the
// same Debug/Info/Warn/Error/Sync ergonomics.
type Logger struct {
	*zap.Logger
}

// NewLogger builds a Logger from a LoggingConfig, following the teacher's
// NewLogger: development vs production base config, then override level and
// encoding.
func NewLogger(cfg LoggingConfig) (*Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if cfg.Format == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{logger}, nil
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
