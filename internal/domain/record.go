package domain

import "time"

// Canonical column names of the unified schema. The CSV source maps the
// known per-month header aliases onto these before records reach the
// transform stage.
const (
	ColTicketNumber  = "TICKET_NUMBER"
	ColObjectID      = "OBJECTID"
	ColIssueDate     = "ISSUE_DATE"
	ColIssueTime     = "ISSUE_TIME"
	ColViolationCode = "VIOLATION_CODE"
	ColViolationDesc = "VIOLATION_PROC_DESC"
	ColLocation      = "LOCATION"
	ColLatitude      = "LATITUDE"
	ColLongitude     = "LONGITUDE"
	ColFineAmount    = "FINE_AMOUNT"
	ColAgency        = "ISSUING_AGENCY_NAME"
	ColDisposition   = "DISPOSITION_DESC"
)

// RawRecord is one CSV row keyed by canonical column name, before any
// type coercion.
type RawRecord struct {
	SourceFile string
	Line       int
	Fields     map[string]string
}

// Geo is a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64
	Lon float64
}

// Zero reports whether the pair is the (0,0) placeholder.
func (g Geo) Zero() bool {
	return g.Lat == 0 && g.Lon == 0
}

// CoordSource values recorded on a violation after coordinate fill.
const (
	CoordOriginal = "original" // coordinates present in the source row
	CoordExact    = "exact"    // filled from an identical location string
	CoordFuzzy    = "fuzzy"    // filled from a validated fuzzy match
)

// Violation is the normalized representation of one parking ticket.
type Violation struct {
	TicketID      string
	IssuedAt      time.Time // issue date combined with the HHMM issue time
	ViolationCode string
	Description   string
	Location      string
	Geo           Geo
	HasCoords     bool
	FineAmount    float64
	Agency        string
	Disposition   string
	CoordSource   string
	Beat          string
	Tract         string
	SourceFile    string
	ProcessedAt   time.Time
}

// DateString renders the issue date in the YYYY-MM-DD form used for the
// DBF attribute table, which has no datetime type.
func (v Violation) DateString() string {
	return v.IssuedAt.Format("2006-01-02")
}

// TimeString renders the issue time as HH:MM:SS for the attribute table.
func (v Violation) TimeString() string {
	return v.IssuedAt.Format("15:04:05")
}
