package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"agmipkit/internal/soil"
)

// Config holds all agmip tool configuration.
type Config struct {
	// Soil layer reduction
	Reducer ReducerConfig `yaml:"reducer"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Batch processing of dataset files
	Batch BatchConfig `yaml:"batch"`
}

// ReducerConfig configures the soil layer reducer.
type ReducerConfig struct {
	TargetModel           string  `yaml:"target_model" env:"AGMIP_TARGET_MODEL"` // stics, aquacrop
	MaxLayers             int     `yaml:"max_layers" env:"AGMIP_MAX_LAYERS"`
	WaterReserveThreshold float64 `yaml:"water_reserve_threshold" env:"AGMIP_WATER_RESERVE_THRESHOLD"` // mm
	BulkDensityThreshold  float64 `yaml:"bulk_density_threshold" env:"AGMIP_BULK_DENSITY_THRESHOLD"`   // g/cm3
	MergeStage            string  `yaml:"merge_stage" env:"AGMIP_MERGE_STAGE"`                         // before, after
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"AGMIP_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"AGMIP_LOG_FORMAT"` // json, console
	File   string `yaml:"file" env:"AGMIP_LOG_FILE"`     // empty = stderr
}

// BatchConfig bounds concurrent dataset processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" env:"AGMIP_BATCH_CONCURRENCY"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Reducer: ReducerConfig{
			TargetModel:           "stics",
			MaxLayers:             soil.DefaultMaxLayers,
			WaterReserveThreshold: soil.DefaultWaterReserveThreshold,
			BulkDensityThreshold:  soil.DefaultBulkDensityThreshold,
			MergeStage:            string(soil.StageBefore),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides overwrites fields whose AGMIP_* variable is set.
func (c *Config) applyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted logging encodings.
var ValidLogFormats = []string{"json", "console"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(soil.Models(), strings.ToLower(strings.TrimSpace(c.Reducer.TargetModel))) {
		return fmt.Errorf("invalid target model: %s (valid: %v)", c.Reducer.TargetModel, soil.Models())
	}
	if c.Reducer.MaxLayers < 1 {
		return fmt.Errorf("max_layers must be >= 1, got %d", c.Reducer.MaxLayers)
	}
	if c.Reducer.WaterReserveThreshold < 0 || c.Reducer.BulkDensityThreshold < 0 {
		return fmt.Errorf("reducer thresholds must not be negative")
	}
	if _, err := soil.ParseStage(c.Reducer.MergeStage); err != nil {
		return err
	}
	if !slices.Contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if !slices.Contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be >= 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

// CriterionOptions returns the soil criterion options for the configured thresholds.
func (c *Config) CriterionOptions() []soil.CriterionOption {
	return []soil.CriterionOption{
		soil.WithThresholds(c.Reducer.WaterReserveThreshold, c.Reducer.BulkDensityThreshold),
	}
}
