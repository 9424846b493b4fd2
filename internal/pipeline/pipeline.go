// Package pipeline orchestrates the one-shot extract-transform-load
// drain over the monthly extracts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
	"github.com/couchcryptid/parking-violations-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw rows from the source. An
// empty batch means the input is exhausted.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
}

// Transformer converts a raw row into a violation ready for output.
// Row-level failures return an error with a non-empty domain.DropReason.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawRecord) (domain.Violation, error)
}

// BatchLoader writes transformed violations to the output artifact.
type BatchLoader interface {
	LoadBatch(ctx context.Context, batch []domain.Violation) error
}

// BadRowCounter is implemented by extractors that skip syntactically
// malformed rows instead of failing the batch. The skipped count is
// folded into the run report as bad_row drops after the drain.
type BadRowCounter interface {
	BadRows() int
}

// Report summarizes one run; it is logged, returned to main, and
// serialized next to the artifact for cmd/validate.
type Report struct {
	RunID           string         `json:"run_id"`
	RowsRead        int            `json:"rows_read"`
	FeaturesWritten int            `json:"features_written"`
	Drops           map[string]int `json:"drops"`
	Fills           map[string]int `json:"fills"`
	FileCounts      map[string]int `json:"file_counts"`
	Settings        ReportSettings `json:"settings"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
}

// ReportSettings echoes the knobs cmd/validate must reproduce to replay
// the transformation.
type ReportSettings struct {
	FillEnabled      bool          `json:"fill_enabled"`
	FuzzyFillEnabled bool          `json:"fuzzy_fill_enabled"`
	FuzzyMinScore    int           `json:"fuzzy_min_score"`
	Bounds           domain.Bounds `json:"bounds"`
}

// Dropped returns the total rows excluded across all reasons.
func (r *Report) Dropped() int {
	n := 0
	for _, c := range r.Drops {
		n += c
	}
	return n
}

// Pipeline drives extract-transform-load until the source is drained.
// Unlike a streaming consumer there is no retry or backoff: a failing
// stage aborts the batch with its cause.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	ready       atomic.Bool

	// Progress counters, readable concurrently by the status endpoint.
	running         atomic.Bool
	runID           atomic.Pointer[string]
	rowsRead        atomic.Int64
	rowsDropped     atomic.Int64
	featuresWritten atomic.Int64
}

// Progress is a point-in-time snapshot of the current run, served by the
// status endpoint while a long batch is active.
type Progress struct {
	RunID           string `json:"run_id"`
	Running         bool   `json:"running"`
	RowsRead        int64  `json:"rows_read"`
	RowsDropped     int64  `json:"rows_dropped"`
	FeaturesWritten int64  `json:"features_written"`
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness reports ready once the first batch has been processed.
// Only meaningful when the metrics listener is enabled.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any rows yet")
	}
	return nil
}

// Progress returns the live counters of the current (or last) run.
func (p *Pipeline) Progress() Progress {
	progress := Progress{
		Running:         p.running.Load(),
		RowsRead:        p.rowsRead.Load(),
		RowsDropped:     p.rowsDropped.Load(),
		FeaturesWritten: p.featuresWritten.Load(),
	}
	if id := p.runID.Load(); id != nil {
		progress.RunID = *id
	}
	return progress
}

// Run drains the source. The returned report is valid only when err is
// nil; a non-nil error means the artifact is incomplete.
func (p *Pipeline) Run(ctx context.Context, runID string, settings ReportSettings) (*Report, error) {
	p.logger.Info("pipeline started", "run_id", runID, "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.runID.Store(&runID)
	p.rowsRead.Store(0)
	p.rowsDropped.Store(0)
	p.featuresWritten.Store(0)
	p.running.Store(true)
	defer p.running.Store(false)

	report := &Report{
		RunID:      runID,
		Drops:      make(map[string]int),
		Fills:      make(map[string]int),
		FileCounts: make(map[string]int),
		Settings:   settings,
		StartedAt:  time.Now().UTC(),
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline interrupted: %w", err)
		}

		done, err := p.processBatch(ctx, report)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	// Rows the extractor skipped as syntactically malformed never reached
	// the transform stage; account for them as read-and-dropped so count
	// conservation (features = rows read - drops) holds.
	if counter, ok := p.extractor.(BadRowCounter); ok {
		if n := counter.BadRows(); n > 0 {
			report.RowsRead += n
			report.Drops[domain.ReasonBadRow] += n
			p.rowsRead.Add(int64(n))
			p.rowsDropped.Add(int64(n))
			p.metrics.RowsRead.Add(float64(n))
			p.metrics.RowsDropped.WithLabelValues(domain.ReasonBadRow).Add(float64(n))
		}
	}

	report.FinishedAt = time.Now().UTC()
	p.logger.Info("pipeline finished",
		"run_id", runID,
		"rows_read", report.RowsRead,
		"features_written", report.FeaturesWritten,
		"dropped", report.Dropped(),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// processBatch runs one extract-transform-load cycle. Returns done=true
// when the source is exhausted.
func (p *Pipeline) processBatch(ctx context.Context, report *Report) (bool, error) {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return false, fmt.Errorf("extract batch: %w", err)
	}
	if len(rawBatch) == 0 {
		return true, nil
	}

	report.RowsRead += len(rawBatch)
	p.rowsRead.Add(int64(len(rawBatch)))
	p.metrics.RowsRead.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))

	outBatch := make([]domain.Violation, 0, len(rawBatch))
	for _, raw := range rawBatch {
		v, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			reason := domain.DropReason(err)
			if reason == "" {
				// Not a row-level drop: abort the run.
				return false, fmt.Errorf("transform %s line %d: %w", raw.SourceFile, raw.Line, err)
			}
			report.Drops[reason]++
			p.rowsDropped.Add(1)
			p.metrics.RowsDropped.WithLabelValues(reason).Inc()
			p.logger.Debug("row dropped",
				"reason", reason, "file", raw.SourceFile, "line", raw.Line, "error", err)
			continue
		}

		if v.CoordSource == domain.CoordExact || v.CoordSource == domain.CoordFuzzy {
			report.Fills[v.CoordSource]++
			p.metrics.CoordsFilled.WithLabelValues(v.CoordSource).Inc()
		}
		outBatch = append(outBatch, v)
	}

	if len(outBatch) > 0 {
		if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
			return false, fmt.Errorf("load batch: %w", err)
		}
		report.FeaturesWritten += len(outBatch)
		p.featuresWritten.Add(int64(len(outBatch)))
		p.metrics.FeaturesWritten.Add(float64(len(outBatch)))
		for i := range outBatch {
			report.FileCounts[outBatch[i].SourceFile]++
		}
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return false, nil
}
