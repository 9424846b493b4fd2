// Package shapefile writes the consolidated violation point layer and
// reads the reference polygon layers, wrapping the go-shp codec behind
// the pipeline's loader contract.
package shapefile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	shp "github.com/jonas-p/go-shp"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

// wgs84WKT is the EPSG:4326 projection definition written to the .prj
// sidecar; go-shp itself only emits .shp/.shx/.dbf.
const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// Attribute column layout of the output layer. DBF caps field names at
// 10 characters (hence DISPOSITIO) and strings at their declared widths;
// values are truncated to fit, never rejected.
const (
	fieldTicketID = iota
	fieldIssueDate
	fieldIssueTime
	fieldVioCode
	fieldVioDesc
	fieldLocation
	fieldAgency
	fieldDisposition
	fieldFineAmount
	fieldLatitude
	fieldLongitude
	fieldCoordSrc
	fieldBeat
	fieldTract
	fieldCount
)

const (
	widthTicketID    = 16
	widthIssueDate   = 10
	widthIssueTime   = 8
	widthVioCode     = 8
	widthVioDesc     = 48
	widthLocation    = 64
	widthAgency      = 32
	widthDisposition = 24
	widthCoordSrc    = 8
	widthBeat        = 12
	widthTract       = 11
)

func outputFields() []shp.Field {
	return []shp.Field{
		shp.StringField("TICKET_ID", widthTicketID),
		shp.StringField("ISSUE_DATE", widthIssueDate),
		shp.StringField("ISSUE_TIME", widthIssueTime),
		shp.StringField("VIO_CODE", widthVioCode),
		shp.StringField("VIO_DESC", widthVioDesc),
		shp.StringField("LOCATION", widthLocation),
		shp.StringField("AGENCY", widthAgency),
		shp.StringField("DISPOSITIO", widthDisposition),
		shp.FloatField("FINE_AMT", 10, 2),
		shp.FloatField("LATITUDE", 13, 8),
		shp.FloatField("LONGITUDE", 13, 8),
		shp.StringField("COORD_SRC", widthCoordSrc),
		shp.StringField("BEAT", widthBeat),
		shp.StringField("TRACT", widthTract),
	}
}

// Writer serializes violations into a point shapefile. It implements
// pipeline.BatchLoader. The attribute schema is identical for every
// feature regardless of which monthly file the row came from; zone
// columns are present even when zone assignment is disabled, just empty.
type Writer struct {
	path   string
	shape  *shp.Writer
	row    int
	logger *slog.Logger
}

// NewWriter creates the output shapefile and declares its schema.
func NewWriter(path string, logger *slog.Logger) (*Writer, error) {
	shape, err := shp.Create(path, shp.POINT)
	if err != nil {
		return nil, fmt.Errorf("create shapefile %s: %w", path, err)
	}
	shape.SetFields(outputFields())
	return &Writer{path: path, shape: shape, logger: logger}, nil
}

// LoadBatch appends one batch of violations as point features.
func (w *Writer) LoadBatch(_ context.Context, batch []domain.Violation) error {
	for i := range batch {
		if err := w.writeFeature(batch[i]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeFeature(v domain.Violation) error {
	w.shape.Write(&shp.Point{X: v.Geo.Lon, Y: v.Geo.Lat})

	attrs := []struct {
		field int
		value interface{}
	}{
		{fieldTicketID, truncate(v.TicketID, widthTicketID)},
		{fieldIssueDate, v.DateString()},
		{fieldIssueTime, v.TimeString()},
		{fieldVioCode, truncate(v.ViolationCode, widthVioCode)},
		{fieldVioDesc, truncate(v.Description, widthVioDesc)},
		{fieldLocation, truncate(v.Location, widthLocation)},
		{fieldAgency, truncate(v.Agency, widthAgency)},
		{fieldDisposition, truncate(v.Disposition, widthDisposition)},
		{fieldFineAmount, v.FineAmount},
		{fieldLatitude, v.Geo.Lat},
		{fieldLongitude, v.Geo.Lon},
		{fieldCoordSrc, truncate(v.CoordSource, widthCoordSrc)},
		{fieldBeat, truncate(v.Beat, widthBeat)},
		{fieldTract, truncate(v.Tract, widthTract)},
	}
	for _, a := range attrs {
		if err := w.shape.WriteAttribute(w.row, a.field, a.value); err != nil {
			return fmt.Errorf("write attribute %d of feature %d: %w", a.field, w.row, err)
		}
	}

	w.row++
	return nil
}

// Count returns the number of features written so far.
func (w *Writer) Count() int {
	return w.row
}

// Close finalizes the shapefile and writes the .prj sidecar.
func (w *Writer) Close() error {
	w.shape.Close()
	prj := sidecarPath(w.path, ".prj")
	if err := os.WriteFile(prj, []byte(wgs84WKT), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", prj, err)
	}
	w.logger.Info("shapefile written", "path", w.path, "features", w.row)
	return nil
}

// truncate clips a string to the declared DBF field width in bytes,
// backing off to a rune boundary so a multi-byte character is never
// split into invalid UTF-8.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	for width > 0 && !utf8.RuneStart(s[width]) {
		width--
	}
	return s[:width]
}

// sidecarPath swaps the extension of a .shp path.
func sidecarPath(shpPath, ext string) string {
	return strings.TrimSuffix(shpPath, ".shp") + ext
}
