// Package config loads ballotfix settings from the environment.
package config

import (
	"fmt"
	"io"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds settings that command-line flags may override.
type Config struct {
	// DB is the fixture store path.
	DB string `env:"BALLOTFIX_DB" envDefault:"ballotfix.db"`

	// Format is the CLI output format, "text" or "json".
	Format string `env:"BALLOTFIX_FORMAT" envDefault:"text"`

	// LogLevel is a zap level name.
	LogLevel string `env:"BALLOTFIX_LOG_LEVEL" envDefault:"warn"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.DB == "" {
		return fmt.Errorf("database path must not be empty")
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// NewLogger builds a JSON logger writing to w at the configured level, or at
// debug level when verbose is set.
func (c Config) NewLogger(w io.Writer, verbose bool) (*zap.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core), nil
}
