// Package logging builds the zap logger used by the agmip command from the logging
// configuration, and names the sub-loggers each subsystem writes to.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"agmipkit/internal/config"
)

// Category names a subsystem logger.
type Category string

const (
	CategoryBoot       Category = "boot"       // startup and configuration
	CategoryReduce     Category = "reduce"     // dataset batch processing
	CategorySoil       Category = "soil"       // layer reduction and initial-condition merge
	CategoryExperiment Category = "experiment" // management and initial-condition helpers
	CategoryMetrics    Category = "metrics"    // metrics export
)

// New builds a logger from cfg. json selects the production encoder, console the development
// one. verbose forces the debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	switch cfg.Format {
	case "", "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Level != "" {
		parsed, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}
	zc.Level = level

	if cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Get returns the named sub-logger for a category. A nil logger yields a no-op logger.
func Get(logger *zap.Logger, category Category) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(string(category))
}
