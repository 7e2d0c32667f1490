package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"agmipkit/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggingConfig
		verbose   bool
		wantDebug bool
		wantInfo  bool
	}{
		{"default", config.LoggingConfig{}, false, false, true},
		{"debug level", config.LoggingConfig{Level: "debug"}, false, true, true},
		{"warn level", config.LoggingConfig{Level: "warn", Format: "console"}, false, false, false},
		{"verbose overrides level", config.LoggingConfig{Level: "error"}, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg, tt.verbose)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDebug, logger.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.wantInfo, logger.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestNewInvalid(t *testing.T) {
	_, err := New(config.LoggingConfig{Format: "xml"}, false)
	assert.Error(t, err)

	_, err = New(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agmip.log")
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json", File: path}, false)
	require.NoError(t, err)

	Get(logger, CategorySoil).Info("soil layer reduction")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"soil"`)
	assert.Contains(t, string(data), "soil layer reduction")
}

func TestGetNil(t *testing.T) {
	logger := Get(nil, CategoryBoot)
	require.NotNil(t, logger)
	logger.Info("discarded")
}
