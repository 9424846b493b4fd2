package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// violations ETL run.
type Metrics struct {
	RowsRead        prometheus.Counter
	RowsDropped     *prometheus.CounterVec // label: reason={bad_row,bad_date,missing_coords,out_of_bounds}
	FeaturesWritten prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Coordinate fill metrics.
	CoordsFilled  *prometheus.CounterVec // label: method={exact,fuzzy}
	FillCache     *prometheus.CounterVec // label: result={hit,miss}
	FillIndexSize prometheus.Gauge
	FillEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parking_etl",
			Name:      "rows_read_total",
			Help:      "Total rows read from the monthly CSV extracts.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows excluded from the output, by reason.",
		}, []string{"reason"}),
		FeaturesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parking_etl",
			Name:      "features_written_total",
			Help:      "Point features written to the output shapefile.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parking_etl",
			Name:      "pipeline_running",
			Help:      "1 while the batch is active, 0 once finished.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parking_etl",
			Name:      "batch_size",
			Help:      "Number of rows per extracted batch.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parking_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		CoordsFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking_etl",
			Name:      "coords_filled_total",
			Help:      "Rows whose missing coordinates were filled, by method.",
		}, []string{"method"}),
		FillCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking_etl",
			Name:      "fill_cache_total",
			Help:      "Coordinate fill cache lookups by result.",
		}, []string{"result"}),
		FillIndexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parking_etl",
			Name:      "fill_index_size",
			Help:      "Distinct known locations in the coordinate fill index.",
		}),
		FillEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parking_etl",
			Name:      "fill_enabled",
			Help:      "1 when coordinate fill is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RowsRead,
		m.RowsDropped,
		m.FeaturesWritten,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.CoordsFilled,
		m.FillCache,
		m.FillIndexSize,
		m.FillEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsRead:                prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parking_etl", Name: "rows_read_total"}),
		RowsDropped:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "parking_etl", Name: "rows_dropped_total"}, []string{"reason"}),
		FeaturesWritten:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parking_etl", Name: "features_written_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "parking_etl", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "parking_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "parking_etl", Name: "batch_processing_duration_seconds"}),
		CoordsFilled:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "parking_etl", Name: "coords_filled_total"}, []string{"method"}),
		FillCache:               prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "parking_etl", Name: "fill_cache_total"}, []string{"result"}),
		FillIndexSize:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "parking_etl", Name: "fill_index_size"}),
		FillEnabled:             prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "parking_etl", Name: "fill_enabled"}),
	}
}
