// Command genmock generates synthetic input fixtures: monthly violation
// CSVs with realistic header drift and malformed rows, plus beat and
// tract reference polygon shapefiles. Useful for demos and for
// exercising cmd/etl and cmd/validate without the real extracts.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock -months 3 -rows 200 -seed 1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	shp "github.com/jonas-p/go-shp"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

var months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var streets = []string{
	"K ST", "M ST", "14TH ST", "7TH ST", "CONSTITUTION AVE",
	"PENNSYLVANIA AVE", "GEORGIA AVE", "WISCONSIN AVE", "H ST", "U ST",
}

var quadrants = []string{"NW", "NE", "SW", "SE"}

var agencies = []string{
	"DPW", "MPD-1D", "MPD-2D", "DDOT", "US PARK POLICE",
}

var dispositions = []string{
	"PAID", "CONTESTED", "DISMISSED", "OPEN", "",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/mock", "output directory for fixtures")
	monthCount := flag.Int("months", 3, "number of monthly CSV files")
	rows := flag.Int("rows", 200, "rows per monthly file")
	seed := flag.Int64("seed", 1, "PRNG seed for reproducible fixtures")
	flag.Parse()

	if *monthCount < 1 || *monthCount > len(months) {
		return fmt.Errorf("-months must be in [1, %d]", len(months))
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	for m := 0; m < *monthCount; m++ {
		name := fmt.Sprintf("Parking_Violations_Issued_in_%s_2023.csv", months[m])
		path := filepath.Join(*outDir, name)
		if err := writeMonth(path, m, *rows, rng); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Printf("wrote %s (%d rows)", path, *rows)
	}

	beatsPath := filepath.Join(*outDir, "beats.shp")
	if err := writeZoneGrid(beatsPath, "BEAT", "B-%d", 4); err != nil {
		return fmt.Errorf("writing beats layer: %w", err)
	}
	log.Printf("wrote %s", beatsPath)

	tractsPath := filepath.Join(*outDir, "tracts.shp")
	if err := writeZoneGrid(tractsPath, "GEOID", "11001%06d", 5); err != nil {
		return fmt.Errorf("writing tracts layer: %w", err)
	}
	log.Printf("wrote %s", tractsPath)

	return nil
}

// canonicalHeader and driftedHeader carry the same columns under
// different spellings, mimicking the drift between real extracts.
var (
	canonicalHeader = []string{
		"OBJECTID", "TICKET_NUMBER", "ISSUE_DATE", "ISSUE_TIME",
		"VIOLATION_CODE", "VIOLATION_PROC_DESC", "LOCATION",
		"LATITUDE", "LONGITUDE", "FINE_AMOUNT",
		"ISSUING_AGENCY_NAME", "DISPOSITION_DESC",
	}
	driftedHeader = []string{
		"OBJECTID", "TICKET_NO", "ISSUE_DATE", "ISSUE_TIME",
		"VIOLATION_CODE", "VIOLATION_DESCRIPTION", "LOCATION",
		"LAT", "LON", "FINE",
		"ISSUING_AGENCY_SHORT", "DISPOSITION",
	}
)

func writeMonth(path string, month, rows int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	// Odd months use the drifted header so the alias mapping is always
	// exercised in mixed runs.
	header := canonicalHeader
	if month%2 == 1 {
		header = driftedHeader
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		if i == rows/2 {
			// One syntactically broken line per file, written past the csv
			// writer so it survives unescaped. The reader skips and counts it.
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(f, `mangled"quote,row`); err != nil {
				return err
			}
		}
		if err := w.Write(mockRow(month, i, rng)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// mockRow fabricates one violation row. A deterministic slice of rows is
// degraded: every 17th loses its coordinates (but keeps a location that
// appears elsewhere with coordinates, so exact fill can recover it),
// every 23rd gets an unparseable date, every 31st lands outside the
// District.
func mockRow(month, i int, rng *rand.Rand) []string {
	b := domain.DCBounds
	lat := b.MinLat + rng.Float64()*(b.MaxLat-b.MinLat)
	lon := b.MinLon + rng.Float64()*(b.MaxLon-b.MinLon)

	// A small pool of locations guarantees repeats across rows.
	block := (1 + rng.Intn(20)) * 100
	location := fmt.Sprintf("%d BLOCK %s %s",
		block, streets[i%len(streets)], quadrants[i%len(quadrants)])

	date := fmt.Sprintf("2023/%02d/%02d 00:00:00+00", month+1, 1+i%28)
	hhmm := fmt.Sprintf("%02d%02d", rng.Intn(24), rng.Intn(60))
	latStr := fmt.Sprintf("%.8f", lat)
	lonStr := fmt.Sprintf("%.8f", lon)

	switch {
	case i > 0 && i%17 == 0:
		latStr, lonStr = "", ""
	case i > 0 && i%23 == 0:
		date = "not-a-date"
	case i > 0 && i%31 == 0:
		latStr = fmt.Sprintf("%.8f", b.MaxLat+1.0)
	}

	fine := fmt.Sprintf("$%d", 25+5*rng.Intn(20))

	return []string{
		fmt.Sprintf("%d", 1000000*month+i+1),
		fmt.Sprintf("T%07d", 100000*month+i+1),
		date,
		hhmm,
		fmt.Sprintf("P%03d", 1+rng.Intn(80)),
		"FAIL TO DISPLAY CURRENT TAGS",
		location,
		latStr,
		lonStr,
		fine,
		agencies[rng.Intn(len(agencies))],
		dispositions[rng.Intn(len(dispositions))],
	}
}

// writeZoneGrid tiles the DC bounding box with an n x n polygon grid and
// writes it as a reference zone shapefile with a single name attribute.
func writeZoneGrid(path, nameField, nameFormat string, n int) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return err
	}
	w.SetFields([]shp.Field{shp.StringField(nameField, 12)})

	b := domain.DCBounds
	dLat := (b.MaxLat - b.MinLat) / float64(n)
	dLon := (b.MaxLon - b.MinLon) / float64(n)

	row := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			minLon := b.MinLon + float64(i)*dLon
			minLat := b.MinLat + float64(j)*dLat
			ring := []shp.Point{
				{X: minLon, Y: minLat},
				{X: minLon + dLon, Y: minLat},
				{X: minLon + dLon, Y: minLat + dLat},
				{X: minLon, Y: minLat + dLat},
				{X: minLon, Y: minLat},
			}
			poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
			w.Write(&poly)
			if err := w.WriteAttribute(row, 0, fmt.Sprintf(nameFormat, row+1)); err != nil {
				w.Close() //nolint:errcheck // already failing
				return err
			}
			row++
		}
	}

	w.Close()
	return nil
}
