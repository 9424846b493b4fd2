// Command etl consolidates the monthly parking-violation CSV extracts
// into one point shapefile. It takes no flags; see internal/config for
// the environment variables it reads. A successful run writes the
// shapefile (zipped by default) plus a JSON run report; any structural
// failure exits non-zero with a diagnostic.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/couchcryptid/parking-violations-etl/internal/adapter/beats"
	"github.com/couchcryptid/parking-violations-etl/internal/adapter/csvsource"
	httpadapter "github.com/couchcryptid/parking-violations-etl/internal/adapter/http"
	"github.com/couchcryptid/parking-violations-etl/internal/adapter/locindex"
	"github.com/couchcryptid/parking-violations-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/parking-violations-etl/internal/config"
	"github.com/couchcryptid/parking-violations-etl/internal/domain"
	"github.com/couchcryptid/parking-violations-etl/internal/observability"
	"github.com/couchcryptid/parking-violations-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := csvsource.New(cfg.InputDir, cfg.InputGlob, logger)
	if err != nil {
		return err
	}
	defer source.Close()
	logger.Info("input discovered", "files", len(source.Files()))

	resolver, err := buildResolver(ctx, cfg, source, metrics, logger)
	if err != nil {
		return err
	}

	beatIndex, err := loadZoneLayer(cfg.BeatsShapefile, cfg.BeatsNameField, "beats", logger)
	if err != nil {
		return err
	}
	tractIndex, err := loadZoneLayer(cfg.TractsShapefile, cfg.TractsNameField, "tracts", logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	writer, err := shapefile.NewWriter(cfg.OutputPath, logger)
	if err != nil {
		return err
	}

	transformer := pipeline.NewTransformer(resolver, asLocator(beatIndex), asLocator(tractIndex), cfg.Bounds, logger)
	p := pipeline.New(source, transformer, writer, logger, metrics, cfg.BatchSize)

	stopMetrics := startMetricsServer(cfg, p, logger)
	defer stopMetrics()

	report, err := p.Run(ctx, runID, pipeline.ReportSettings{
		FillEnabled:      cfg.FillEnabled,
		FuzzyFillEnabled: cfg.FuzzyFillEnabled,
		FuzzyMinScore:    cfg.FuzzyMinScore,
		Bounds:           cfg.Bounds,
	})
	if err != nil {
		writer.Close() //nolint:errcheck // already failing; keep the first error
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	if cfg.ZipOutput {
		zipPath, err := shapefile.Archive(cfg.OutputPath)
		if err != nil {
			return err
		}
		logger.Info("artifact archived", "path", zipPath)
	}

	reportPath := cfg.ReportPath
	if reportPath == "" {
		reportPath = strings.TrimSuffix(cfg.OutputPath, ".shp") + "_report.json"
	}
	if err := writeReport(reportPath, report); err != nil {
		return err
	}
	logger.Info("run report written", "path", reportPath)

	return nil
}

// buildResolver runs pass one (location index) and assembles the fill
// resolver chain. Returns nil when fill is disabled.
func buildResolver(ctx context.Context, cfg *config.Config, source *csvsource.Source, metrics *observability.Metrics, logger *slog.Logger) (domain.CoordinateResolver, error) {
	if !cfg.FillEnabled {
		logger.Info("coordinate fill disabled")
		metrics.FillEnabled.Set(0)
		return nil, nil
	}

	index, err := locindex.Build(ctx, source, cfg.BatchSize, logger)
	if err != nil {
		return nil, err
	}
	if err := source.Reset(); err != nil {
		return nil, fmt.Errorf("rewind input after index pass: %w", err)
	}

	metrics.FillEnabled.Set(1)
	metrics.FillIndexSize.Set(float64(index.Len()))

	var resolver domain.CoordinateResolver = locindex.NewExactResolver(index)
	if cfg.FuzzyFillEnabled {
		resolver = locindex.NewFuzzyResolver(index, cfg.FuzzyMinScore)
		logger.Info("fuzzy coordinate fill enabled", "min_score", cfg.FuzzyMinScore)
	}
	return locindex.NewCachedResolver(resolver, cfg.FillCacheSize, metrics), nil
}

func loadZoneLayer(path, nameField, layer string, logger *slog.Logger) (*beats.Index, error) {
	if path == "" {
		logger.Info("zone assignment disabled", "layer", layer)
		return nil, nil
	}
	return beats.Load(path, nameField, logger)
}

// asLocator converts a possibly-nil *beats.Index into the pipeline's
// locator interface without the typed-nil trap.
func asLocator(ix *beats.Index) pipeline.ZoneLocator {
	if ix == nil {
		return nil
	}
	return ix
}

// startMetricsServer launches the health/metrics listener when
// configured and returns its shutdown func.
func startMetricsServer(cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) func() {
	if cfg.MetricsAddr == "" {
		return func() {}
	}

	srv := httpadapter.NewServer(cfg.MetricsAddr, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
}

func writeReport(path string, report *pipeline.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	return nil
}
