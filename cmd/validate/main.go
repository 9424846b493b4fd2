// Command validate checks a produced violations shapefile against the
// source CSV extracts and the run report. It replays the normalization
// (including coordinate fill, per the settings echoed in the report) and
// verifies four properties: the bounding-box policy, count conservation
// (features = rows - drops), attribute round-trip modulo DBF truncation,
// and schema consistency across features.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv-dir data/raw \
//	  -shapefile data/out/violations.shp \
//	  -report data/out/violations_report.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/couchcryptid/parking-violations-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/parking-violations-etl/internal/adapter/locindex"
	"github.com/couchcryptid/parking-violations-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/parking-violations-etl/internal/domain"
	"github.com/couchcryptid/parking-violations-etl/internal/pipeline"
)

// expectedFields is the full attribute schema every feature must carry.
var expectedFields = []string{
	"TICKET_ID", "ISSUE_DATE", "ISSUE_TIME", "VIO_CODE", "VIO_DESC",
	"LOCATION", "AGENCY", "DISPOSITIO", "FINE_AMT", "LATITUDE",
	"LONGITUDE", "COORD_SRC", "BEAT", "TRACT",
}

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvDir := flag.String("csv-dir", "", "directory containing the source CSV extracts")
	glob := flag.String("glob", "*.csv", "input file glob within -csv-dir")
	shpPath := flag.String("shapefile", "", "path to the produced .shp")
	reportPath := flag.String("report", "", "path to the run report JSON")
	flag.Parse()

	if *csvDir == "" || *shpPath == "" || *reportPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvDir, *glob, *shpPath, *reportPath); code != 0 {
		os.Exit(code)
	}
}

func run(csvDir, glob, shpPath, reportPath string) int {
	report, err := loadReport(reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load run report: %v\n", err)
		return 1
	}

	features, err := shapefile.ReadPoints(shpPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load shapefile: %v\n", err)
		return 1
	}

	expected, err := replay(csvDir, glob, report.Settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: replay transformation: %v\n", err)
		return 1
	}

	fmt.Println("=== Violations Artifact Integrity Validation ===")
	fmt.Println()

	phases := []*phase{
		validateBounds(features, report.Settings.Bounds),
		validateCounts(features, expected, report),
		validateRoundTrip(features, expected),
		validateSchema(features),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d CSV rows, %d retained (replay), %d features\n",
		expected.rowsRead, len(expected.violations), len(features))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadReport(path string) (*pipeline.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report pipeline.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// replayResult is the recomputed transformation outcome.
type replayResult struct {
	violations map[string]domain.Violation // keyed by ticket ID
	drops      map[string]int
	rowsRead   int
	dupes      int
}

// replay re-runs ingestion and transformation with the settings from the
// run report. Zone assignment is skipped; BEAT/TRACT are not compared.
func replay(csvDir, glob string, settings pipeline.ReportSettings) (*replayResult, error) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	const batchSize = 500

	source, err := csvsource.New(csvDir, glob, logger)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	var resolver domain.CoordinateResolver
	if settings.FillEnabled {
		index, err := locindex.Build(ctx, source, batchSize, logger)
		if err != nil {
			return nil, err
		}
		if err := source.Reset(); err != nil {
			return nil, err
		}
		if settings.FuzzyFillEnabled {
			resolver = locindex.NewFuzzyResolver(index, settings.FuzzyMinScore)
		} else {
			resolver = locindex.NewExactResolver(index)
		}
	}

	result := &replayResult{
		violations: make(map[string]domain.Violation),
		drops:      make(map[string]int),
	}

	for {
		batch, err := source.ExtractBatch(ctx, batchSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		result.rowsRead += len(batch)

		for _, raw := range batch {
			v, err := domain.ParseRecord(raw)
			if err == nil {
				v = domain.EnrichWithCoordinates(ctx, v, resolver, logger)
				err = domain.ValidateCoordinates(v, settings.Bounds)
			}
			if err != nil {
				reason := domain.DropReason(err)
				if reason == "" {
					return nil, err
				}
				result.drops[reason]++
				continue
			}

			// The writer keeps every row; duplicates are only excluded
			// from the round-trip comparison, first occurrence wins.
			if _, seen := result.violations[v.TicketID]; seen {
				result.dupes++
				continue
			}
			result.violations[v.TicketID] = v
		}
	}

	// Syntactically malformed rows the source skipped count as
	// read-and-dropped, mirroring the pipeline's accounting.
	if n := source.BadRows(); n > 0 {
		result.rowsRead += n
		result.drops[domain.ReasonBadRow] += n
	}

	return result, nil
}

// ── Phase 1: Bounding-box policy ──

func validateBounds(features []shapefile.PointFeature, bounds domain.Bounds) *phase {
	p := &phase{name: "Phase 1: Bounding-box policy"}

	for i, f := range features {
		if !bounds.Contains(f.Geo) {
			p.errorf("feature %d: geometry (%.5f, %.5f) outside bounds", i, f.Geo.Lat, f.Geo.Lon)
		}
		lat := parseFloatAttr(f.Attributes["LATITUDE"])
		lon := parseFloatAttr(f.Attributes["LONGITUDE"])
		if !floatEq(lat, f.Geo.Lat, 1e-6) || !floatEq(lon, f.Geo.Lon, 1e-6) {
			p.errorf("feature %d: attribute coords (%.6f, %.6f) disagree with geometry (%.6f, %.6f)",
				i, lat, lon, f.Geo.Lat, f.Geo.Lon)
		}
	}
	return p
}

// ── Phase 2: Count conservation ──

func validateCounts(features []shapefile.PointFeature, expected *replayResult, report *pipeline.Report) *phase {
	p := &phase{name: "Phase 2: Count conservation"}

	if len(features) != report.FeaturesWritten {
		p.errorf("shapefile has %d features, report says %d", len(features), report.FeaturesWritten)
	}
	if report.RowsRead != expected.rowsRead {
		p.errorf("report rows_read=%d, replay read %d", report.RowsRead, expected.rowsRead)
	}
	if got, want := report.FeaturesWritten, report.RowsRead-report.Dropped(); got != want {
		p.errorf("features_written=%d but rows_read-drops=%d", got, want)
	}
	for reason, count := range expected.drops {
		if report.Drops[reason] != count {
			p.errorf("drop reason %q: report=%d, replay=%d", reason, report.Drops[reason], count)
		}
	}
	return p
}

// ── Phase 3: Attribute round-trip ──

func validateRoundTrip(features []shapefile.PointFeature, expected *replayResult) *phase {
	p := &phase{name: "Phase 3: Attribute round-trip"}

	if expected.dupes > 0 {
		fmt.Printf("  Note: %d duplicate ticket ID(s) excluded from round-trip comparison\n", expected.dupes)
	}

	seen := map[string]bool{}
	for i, f := range features {
		id := f.Attributes["TICKET_ID"]
		if id == "" {
			p.errorf("feature %d: empty TICKET_ID", i)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		v, ok := expected.violations[id]
		if !ok {
			p.errorf("feature %d: ticket %q not produced by replay", i, id)
			continue
		}
		compareFeature(p, i, f, v)
	}
	return p
}

// compareFeature checks one feature against its replayed violation,
// allowing for DBF string truncation and numeric formatting.
func compareFeature(p *phase, i int, f shapefile.PointFeature, v domain.Violation) {
	checks := []struct {
		field string
		want  string
	}{
		{"ISSUE_DATE", v.DateString()},
		{"ISSUE_TIME", v.TimeString()},
		{"VIO_CODE", truncate(v.ViolationCode, 8)},
		{"VIO_DESC", truncate(v.Description, 48)},
		{"LOCATION", truncate(v.Location, 64)},
		{"AGENCY", truncate(v.Agency, 32)},
		{"DISPOSITIO", truncate(v.Disposition, 24)},
		{"COORD_SRC", v.CoordSource},
	}
	for _, c := range checks {
		if got := f.Attributes[c.field]; got != c.want {
			p.errorf("feature %d (ticket %s): %s: expected %q, got %q", i, v.TicketID, c.field, c.want, got)
		}
	}

	if got := parseFloatAttr(f.Attributes["FINE_AMT"]); !floatEq(got, v.FineAmount, 0.005) {
		p.errorf("feature %d (ticket %s): FINE_AMT: expected %.2f, got %.2f", i, v.TicketID, v.FineAmount, got)
	}
	if !floatEq(f.Geo.Lat, v.Geo.Lat, 1e-6) || !floatEq(f.Geo.Lon, v.Geo.Lon, 1e-6) {
		p.errorf("feature %d (ticket %s): geometry (%.6f, %.6f), expected (%.6f, %.6f)",
			i, v.TicketID, f.Geo.Lat, f.Geo.Lon, v.Geo.Lat, v.Geo.Lon)
	}
}

// ── Phase 4: Schema consistency ──

func validateSchema(features []shapefile.PointFeature) *phase {
	p := &phase{name: "Phase 4: Schema consistency"}

	for i, f := range features {
		for _, field := range expectedFields {
			if _, ok := f.Attributes[field]; !ok {
				p.errorf("feature %d: missing attribute %q", i, field)
			}
		}
		if len(f.Attributes) != len(expectedFields) {
			p.errorf("feature %d: has %d attributes, schema declares %d", i, len(f.Attributes), len(expectedFields))
		}
	}
	return p
}

// ── Helpers ──

// truncate mirrors the writer's DBF clipping, including the rune-boundary
// backoff.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	for width > 0 && !utf8.RuneStart(s[width]) {
		width--
	}
	return s[:width]
}

func parseFloatAttr(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func floatEq(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}
