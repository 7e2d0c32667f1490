package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "stics", cfg.Reducer.TargetModel)
	assert.Equal(t, 5, cfg.Reducer.MaxLayers)
	assert.Equal(t, 10.0, cfg.Reducer.WaterReserveThreshold)
	assert.Equal(t, 0.08, cfg.Reducer.BulkDensityThreshold)
	assert.Equal(t, "before", cfg.Reducer.MergeStage)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agmip.yaml")
	content := `
reducer:
  target_model: aquacrop
  max_layers: 3
  merge_stage: after
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "aquacrop", cfg.Reducer.TargetModel)
	assert.Equal(t, 3, cfg.Reducer.MaxLayers)
	assert.Equal(t, "after", cfg.Reducer.MergeStage)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, 10.0, cfg.Reducer.WaterReserveThreshold)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agmip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reducer: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "agmip.yaml")
	cfg := DefaultConfig()
	cfg.Reducer.MaxLayers = 7
	cfg.Batch.Concurrency = 2
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("file values are overridden", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "agmip.yaml")
		require.NoError(t, os.WriteFile(path, []byte("reducer:\n  max_layers: 3\n"), 0644))
		t.Setenv("AGMIP_MAX_LAYERS", "8")
		t.Setenv("AGMIP_TARGET_MODEL", "aquacrop")
		t.Setenv("AGMIP_WATER_RESERVE_THRESHOLD", "12.5")
		t.Setenv("AGMIP_LOG_FORMAT", "console")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Reducer.MaxLayers)
		assert.Equal(t, "aquacrop", cfg.Reducer.TargetModel)
		assert.Equal(t, 12.5, cfg.Reducer.WaterReserveThreshold)
		assert.Equal(t, "console", cfg.Logging.Format)
	})

	t.Run("applied without a config file", func(t *testing.T) {
		t.Setenv("AGMIP_BATCH_CONCURRENCY", "9")
		t.Setenv("AGMIP_MERGE_STAGE", "after")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 9, cfg.Batch.Concurrency)
		assert.Equal(t, "after", cfg.Reducer.MergeStage)
	})

	t.Run("invalid number", func(t *testing.T) {
		t.Setenv("AGMIP_MAX_LAYERS", "many")

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Reducer.TargetModel = "dssat" }},
		{"zero layers", func(c *Config) { c.Reducer.MaxLayers = 0 }},
		{"negative threshold", func(c *Config) { c.Reducer.BulkDensityThreshold = -1 }},
		{"bad stage", func(c *Config) { c.Reducer.MergeStage = "during" }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero concurrency", func(c *Config) { c.Batch.Concurrency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.Reducer.TargetModel = " AquaCrop "
	assert.NoError(t, cfg.Validate())
}
