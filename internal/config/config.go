package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

// Config holds all run settings, populated from environment variables.
// The tool takes no flags; everything is env-configured with defaults
// that match the repo's data/ layout.
type Config struct {
	InputDir   string
	InputGlob  string
	OutputPath string
	ReportPath string
	ZipOutput  bool

	// Reference shapefiles. Zone assignment is enabled per-layer by
	// setting the corresponding path.
	BeatsShapefile  string
	BeatsNameField  string
	TractsShapefile string
	TractsNameField string

	// Coordinate fill.
	FillEnabled      bool
	FuzzyFillEnabled bool
	FuzzyMinScore    int
	FillCacheSize    int

	Bounds    domain.Bounds
	BatchSize int

	LogLevel  string
	LogFormat string

	// MetricsAddr enables the /healthz /readyz /metrics listener for the
	// duration of the run when non-empty.
	MetricsAddr     string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	batchSize, err := parseIntRange("BATCH_SIZE", 500, 1, 10000)
	if err != nil {
		return nil, err
	}
	fuzzyMinScore, err := parseIntRange("FUZZY_MIN_SCORE", 85, 1, 100)
	if err != nil {
		return nil, err
	}
	fillCacheSize, err := parseIntRange("FILL_CACHE_SIZE", 1000, 1, 1_000_000)
	if err != nil {
		return nil, err
	}
	bounds, err := parseBounds()
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputDir:   envOrDefault("INPUT_DIR", "data/raw"),
		InputGlob:  envOrDefault("INPUT_GLOB", "*.csv"),
		OutputPath: envOrDefault("OUTPUT_PATH", "data/out/violations.shp"),
		ReportPath: os.Getenv("REPORT_PATH"),
		ZipOutput:  parseBool("ZIP_OUTPUT", true),

		BeatsShapefile:  os.Getenv("BEATS_SHAPEFILE"),
		BeatsNameField:  envOrDefault("BEATS_NAME_FIELD", "BEAT"),
		TractsShapefile: os.Getenv("TRACTS_SHAPEFILE"),
		TractsNameField: envOrDefault("TRACTS_NAME_FIELD", "GEOID"),

		FillEnabled:      parseBool("FILL_ENABLED", true),
		FuzzyFillEnabled: parseBool("FUZZY_FILL_ENABLED", false),
		FuzzyMinScore:    fuzzyMinScore,
		FillCacheSize:    fillCacheSize,

		Bounds:    bounds,
		BatchSize: batchSize,

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.InputDir == "" {
		return nil, errors.New("INPUT_DIR is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if cfg.FuzzyFillEnabled && !cfg.FillEnabled {
		return nil, errors.New("FUZZY_FILL_ENABLED requires FILL_ENABLED")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return def
	}
}

func parseIntRange(key string, def, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, min, max)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not a number", key, s)
	}
	return v, nil
}

// parseBounds reads the coordinate envelope, defaulting to the District.
func parseBounds() (domain.Bounds, error) {
	b := domain.DCBounds
	var err error
	if b.MinLat, err = parseFloat("MIN_LAT", b.MinLat); err != nil {
		return domain.Bounds{}, err
	}
	if b.MaxLat, err = parseFloat("MAX_LAT", b.MaxLat); err != nil {
		return domain.Bounds{}, err
	}
	if b.MinLon, err = parseFloat("MIN_LON", b.MinLon); err != nil {
		return domain.Bounds{}, err
	}
	if b.MaxLon, err = parseFloat("MAX_LON", b.MaxLon); err != nil {
		return domain.Bounds{}, err
	}
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return domain.Bounds{}, errors.New("invalid bounds: MIN_LAT/MIN_LON must be below MAX_LAT/MAX_LON")
	}
	return b, nil
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}
