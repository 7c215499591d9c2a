package config

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

type envTestConfig struct {
	Port int `env:"BALLOTFIX_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("BALLOTFIX_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"BALLOTFIX_DB", "BALLOTFIX_FORMAT", "BALLOTFIX_LOG_LEVEL"} {
		t.Setenv(key, "") // restores the original value after the test
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB != "ballotfix.db" || cfg.Format != "text" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BALLOTFIX_DB", "/tmp/fixtures.db")
	t.Setenv("BALLOTFIX_FORMAT", "json")
	t.Setenv("BALLOTFIX_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB != "/tmp/fixtures.db" || cfg.Format != "json" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	level, err := cfg.Level()
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if level != zapcore.DebugLevel {
		t.Fatalf("expected debug level, got %v", level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"valid", Config{DB: "x.db", Format: "text", LogLevel: "info"}, ""},
		{"bad format", Config{DB: "x.db", Format: "xml", LogLevel: "info"}, "invalid format"},
		{"bad level", Config{DB: "x.db", Format: "json", LogLevel: "loud"}, "invalid log level"},
		{"empty db", Config{Format: "json", LogLevel: "info"}, "database path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewLoggerVerbose(t *testing.T) {
	cfg := Config{DB: "x.db", Format: "text", LogLevel: "error"}
	var buf bytes.Buffer

	logger, err := cfg.NewLogger(&buf, true)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("verbose logger should enable debug")
	}

	logger, err = cfg.NewLogger(&buf, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("error-level logger should not enable warn")
	}

	logger.Error("store unavailable")
	if !strings.Contains(buf.String(), `"msg":"store unavailable"`) {
		t.Fatalf("expected JSON log line, got %q", buf.String())
	}
}
