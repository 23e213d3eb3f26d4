package observability

import "testing"

func TestNewLoggerDefaultsToInfoLevel(t *testing.T) {
	logger, err := NewLogger(DefaultLoggingConfig())
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	if !logger.Core().Enabled(0) { // zapcore.InfoLevel == 0
		t.Errorf("expected info level to be enabled")
	}
}

func TestNewLoggerFallsBackToInfoForGarbageLevel(t *testing.T) {
	cfg := LoggingConfig{Level: "not-a-level", Format: "console"}
	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	if !logger.Core().Enabled(0) { // zapcore.InfoLevel == 0
		t.Errorf("expected info level to be enabled")
	}
	if logger.Core().Enabled(-1) { // zapcore.DebugLevel == -1
		t.Errorf("expected debug level to be disabled")
	}
}

func TestLoggingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr bool
	}{
		{"defaults", DefaultLoggingConfig(), false},
		{"bad level", LoggingConfig{Level: "nope", Format: "json"}, true},
		{"bad format", LoggingConfig{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
