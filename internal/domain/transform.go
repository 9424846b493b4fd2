package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// Row-level drop causes. The pipeline skips and counts these; anything
// else returned from parsing aborts the run.
var (
	ErrBadDate            = errors.New("unparseable issue date")
	ErrMissingCoordinates = errors.New("missing coordinates")
	ErrOutOfBounds        = errors.New("coordinates outside accepted bounds")
)

// Drop reason labels, used as metric label values and report keys.
const (
	ReasonBadDate       = "bad_date"
	ReasonMissingCoords = "missing_coords"
	ReasonOutOfBounds   = "out_of_bounds"
	ReasonBadRow        = "bad_row"
)

// DropReason maps a row-level error to its metric label, or "" when the
// error is not a recognized drop cause.
func DropReason(err error) string {
	switch {
	case errors.Is(err, ErrBadDate):
		return ReasonBadDate
	case errors.Is(err, ErrMissingCoordinates):
		return ReasonMissingCoords
	case errors.Is(err, ErrOutOfBounds):
		return ReasonOutOfBounds
	default:
		return ""
	}
}

// issueDateLayouts covers the date formats seen across the monthly
// extracts. Later extracts carry a full timestamp with offset, earlier
// ones a bare date; a few use US-style slashes.
var issueDateLayouts = []string{
	"2006/01/02 15:04:05-07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseRecord coerces a raw CSV row into a Violation. The returned error
// is ErrBadDate (droppable) when the issue date is missing or
// unparseable; all other fields degrade to zero values rather than
// failing the row.
func ParseRecord(raw RawRecord) (Violation, error) {
	date, err := parseIssueDate(raw.Fields[ColIssueDate])
	if err != nil {
		return Violation{}, fmt.Errorf("line %d: %w", raw.Line, err)
	}

	geo, hasCoords := ParseGeo(raw.Fields[ColLatitude], raw.Fields[ColLongitude])

	return Violation{
		TicketID:      ticketID(raw.Fields),
		IssuedAt:      combineHHMM(date, raw.Fields[ColIssueTime]),
		ViolationCode: strings.TrimSpace(raw.Fields[ColViolationCode]),
		Description:   strings.TrimSpace(raw.Fields[ColViolationDesc]),
		Location:      strings.TrimSpace(raw.Fields[ColLocation]),
		Geo:           geo,
		HasCoords:     hasCoords,
		FineAmount:    parseMoney(raw.Fields[ColFineAmount]),
		Agency:        strings.TrimSpace(raw.Fields[ColAgency]),
		Disposition:   normalizeDisposition(raw.Fields[ColDisposition]),
		SourceFile:    raw.SourceFile,
	}, nil
}

// ticketID prefers the ticket number and falls back to the row OBJECTID,
// which is unique within a monthly extract.
func ticketID(fields map[string]string) string {
	if id := strings.TrimSpace(fields[ColTicketNumber]); id != "" {
		return id
	}
	return strings.TrimSpace(fields[ColObjectID])
}

func parseIssueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadDate
	}
	for _, layout := range issueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// combineHHMM merges a base date with an integer HHMM issue time
// (e.g. "1510" → 15:10, "930" → 09:30). Invalid values leave midnight.
func combineHHMM(baseDate time.Time, hhmm string) time.Time {
	hhmm = strings.TrimSpace(hhmm)
	if hhmm == "" {
		return baseDate
	}
	for len(hhmm) < 4 {
		hhmm = "0" + hhmm
	}
	if len(hhmm) > 4 {
		return baseDate
	}

	hour, errH := strconv.Atoi(hhmm[:2])
	mins, errM := strconv.Atoi(hhmm[2:])
	if errH != nil || errM != nil || hour > 23 || mins > 59 {
		return baseDate
	}

	return time.Date(
		baseDate.Year(), baseDate.Month(), baseDate.Day(),
		hour, mins, 0, 0, time.UTC,
	)
}

// ParseGeo parses a latitude/longitude string pair. The second return is
// false when either value is empty or unparseable, or when the pair is
// the (0,0) placeholder.
func ParseGeo(latStr, lonStr string) (Geo, bool) {
	lat, okLat := parseCoord(latStr)
	lon, okLon := parseCoord(lonStr)
	if !okLat || !okLon {
		return Geo{}, false
	}
	g := Geo{Lat: lat, Lon: lon}
	if g.Zero() {
		return Geo{}, false
	}
	return g, true
}

func parseCoord(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseMoney parses a dollar amount, tolerating "$", thousands commas,
// and accounting-style parentheses for negatives. Returns 0 on failure.
func parseMoney(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -v
	}
	return v
}

func normalizeDisposition(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Bounds is the accepted coordinate envelope in decimal degrees.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// DCBounds covers the District of Columbia with a small margin.
var DCBounds = Bounds{
	MinLat: 38.79,
	MaxLat: 39.00,
	MinLon: -77.12,
	MaxLon: -76.90,
}

func (b Bounds) bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Contains reports whether the pair falls inside the envelope, edges
// included.
func (b Bounds) Contains(g Geo) bool {
	return b.bound().Contains(orb.Point{g.Lon, g.Lat})
}

// ValidateCoordinates enforces the geometry policy: records without
// coordinates are dropped rather than imputed, and records outside the
// envelope are dropped rather than clamped.
func ValidateCoordinates(v Violation, b Bounds) error {
	if !v.HasCoords {
		return ErrMissingCoordinates
	}
	if !b.Contains(v.Geo) {
		return fmt.Errorf("%w: (%.5f, %.5f)", ErrOutOfBounds, v.Geo.Lat, v.Geo.Lon)
	}
	return nil
}

// FinalizeViolation stamps the processing time. Kept separate from
// ParseRecord so fixture generation can freeze the clock.
func FinalizeViolation(v Violation) Violation {
	v.ProcessedAt = clock.Now()
	return v
}
