package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw", cfg.InputDir)
	assert.Equal(t, "*.csv", cfg.InputGlob)
	assert.Equal(t, "data/out/violations.shp", cfg.OutputPath)
	assert.Empty(t, cfg.ReportPath)
	assert.True(t, cfg.ZipOutput)

	assert.Empty(t, cfg.BeatsShapefile)
	assert.Equal(t, "BEAT", cfg.BeatsNameField)
	assert.Empty(t, cfg.TractsShapefile)
	assert.Equal(t, "GEOID", cfg.TractsNameField)

	assert.True(t, cfg.FillEnabled)
	assert.False(t, cfg.FuzzyFillEnabled)
	assert.Equal(t, 85, cfg.FuzzyMinScore)
	assert.Equal(t, 1000, cfg.FillCacheSize)

	assert.Equal(t, 38.79, cfg.Bounds.MinLat)
	assert.Equal(t, 39.00, cfg.Bounds.MaxLat)
	assert.Equal(t, -77.12, cfg.Bounds.MinLon)
	assert.Equal(t, -76.90, cfg.Bounds.MaxLon)
	assert.Equal(t, 500, cfg.BatchSize)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INPUT_DIR", "/data/extracts")
	t.Setenv("INPUT_GLOB", "Parking_*.csv")
	t.Setenv("OUTPUT_PATH", "/data/out/dc.shp")
	t.Setenv("REPORT_PATH", "/data/out/dc_report.json")
	t.Setenv("ZIP_OUTPUT", "false")
	t.Setenv("BEATS_SHAPEFILE", "/data/ref/beats.shp")
	t.Setenv("TRACTS_SHAPEFILE", "/data/ref/tracts.shp")
	t.Setenv("TRACTS_NAME_FIELD", "TRACT_ID")
	t.Setenv("FUZZY_FILL_ENABLED", "true")
	t.Setenv("FUZZY_MIN_SCORE", "90")
	t.Setenv("FILL_CACHE_SIZE", "5000")
	t.Setenv("BATCH_SIZE", "250")
	t.Setenv("MIN_LAT", "38.5")
	t.Setenv("MAX_LAT", "39.2")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/extracts", cfg.InputDir)
	assert.Equal(t, "Parking_*.csv", cfg.InputGlob)
	assert.Equal(t, "/data/out/dc.shp", cfg.OutputPath)
	assert.Equal(t, "/data/out/dc_report.json", cfg.ReportPath)
	assert.False(t, cfg.ZipOutput)
	assert.Equal(t, "/data/ref/beats.shp", cfg.BeatsShapefile)
	assert.Equal(t, "TRACT_ID", cfg.TractsNameField)
	assert.True(t, cfg.FuzzyFillEnabled)
	assert.Equal(t, 90, cfg.FuzzyMinScore)
	assert.Equal(t, 5000, cfg.FillCacheSize)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, 38.5, cfg.Bounds.MinLat)
	assert.Equal(t, 39.2, cfg.Bounds.MaxLat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadValidation(t *testing.T) {
	t.Run("batch size out of range", func(t *testing.T) {
		t.Setenv("BATCH_SIZE", "0")
		_, err := Load()
		assert.ErrorContains(t, err, "BATCH_SIZE")
	})

	t.Run("batch size not a number", func(t *testing.T) {
		t.Setenv("BATCH_SIZE", "many")
		_, err := Load()
		assert.ErrorContains(t, err, "BATCH_SIZE")
	})

	t.Run("fuzzy score out of range", func(t *testing.T) {
		t.Setenv("FUZZY_MIN_SCORE", "150")
		_, err := Load()
		assert.ErrorContains(t, err, "FUZZY_MIN_SCORE")
	})

	t.Run("fuzzy fill requires fill", func(t *testing.T) {
		t.Setenv("FILL_ENABLED", "false")
		t.Setenv("FUZZY_FILL_ENABLED", "true")
		_, err := Load()
		assert.ErrorContains(t, err, "FUZZY_FILL_ENABLED")
	})

	t.Run("inverted bounds", func(t *testing.T) {
		t.Setenv("MIN_LAT", "39.5")
		_, err := Load()
		assert.ErrorContains(t, err, "bounds")
	})

	t.Run("non-numeric bound", func(t *testing.T) {
		t.Setenv("MIN_LON", "west")
		_, err := Load()
		assert.ErrorContains(t, err, "MIN_LON")
	})

	t.Run("bad shutdown timeout", func(t *testing.T) {
		t.Setenv("SHUTDOWN_TIMEOUT", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "SHUTDOWN_TIMEOUT")
	})
}
