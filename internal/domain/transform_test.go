package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	t.Run("complete row", func(t *testing.T) {
		raw := RawRecord{
			SourceFile: "Parking_Violations_Issued_in_January_2023.csv",
			Line:       2,
			Fields: map[string]string{
				ColObjectID:      "1",
				ColTicketNumber:  "T0012345",
				ColIssueDate:     "2023/01/15 00:00:00+00",
				ColIssueTime:     "1510",
				ColViolationCode: "P076",
				ColViolationDesc: "NO PARKING ANYTIME",
				ColLocation:      "1400 BLOCK K ST NW",
				ColLatitude:      "38.90000000",
				ColLongitude:     "-77.03000000",
				ColFineAmount:    "$50",
				ColAgency:        "DPW",
				ColDisposition:   "PAID",
			},
		}

		v, err := ParseRecord(raw)

		require.NoError(t, err)
		assert.Equal(t, "T0012345", v.TicketID)
		assert.Equal(t, time.Date(2023, 1, 15, 15, 10, 0, 0, time.UTC), v.IssuedAt)
		assert.Equal(t, "P076", v.ViolationCode)
		assert.Equal(t, "NO PARKING ANYTIME", v.Description)
		assert.Equal(t, "1400 BLOCK K ST NW", v.Location)
		assert.True(t, v.HasCoords)
		assert.Equal(t, 38.9, v.Geo.Lat)
		assert.Equal(t, -77.03, v.Geo.Lon)
		assert.Equal(t, 50.0, v.FineAmount)
		assert.Equal(t, "DPW", v.Agency)
		assert.Equal(t, "paid", v.Disposition)
		assert.Equal(t, raw.SourceFile, v.SourceFile)
		assert.True(t, v.ProcessedAt.IsZero())
	})

	t.Run("missing latitude leaves record coordinate-less", func(t *testing.T) {
		raw := RawRecord{Fields: map[string]string{
			ColTicketNumber: "T1",
			ColIssueDate:    "2023-01-15",
			ColLatitude:     "",
			ColLongitude:    "-77.03",
		}}

		v, err := ParseRecord(raw)

		require.NoError(t, err)
		assert.False(t, v.HasCoords)
		assert.True(t, v.Geo.Zero())
	})

	t.Run("ticket ID falls back to OBJECTID", func(t *testing.T) {
		raw := RawRecord{Fields: map[string]string{
			ColObjectID:  "4471",
			ColIssueDate: "2023-01-15",
		}}

		v, err := ParseRecord(raw)

		require.NoError(t, err)
		assert.Equal(t, "4471", v.TicketID)
	})

	t.Run("unparseable date drops the row", func(t *testing.T) {
		raw := RawRecord{Line: 7, Fields: map[string]string{
			ColTicketNumber: "T2",
			ColIssueDate:    "not-a-date",
		}}

		_, err := ParseRecord(raw)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadDate)
		assert.Equal(t, ReasonBadDate, DropReason(err))
	})

	t.Run("empty date drops the row", func(t *testing.T) {
		raw := RawRecord{Fields: map[string]string{ColTicketNumber: "T3"}}

		_, err := ParseRecord(raw)

		assert.ErrorIs(t, err, ErrBadDate)
	})

	t.Run("unparseable fine degrades to zero", func(t *testing.T) {
		raw := RawRecord{Fields: map[string]string{
			ColIssueDate:  "2023-01-15",
			ColFineAmount: "n/a",
		}}

		v, err := ParseRecord(raw)

		require.NoError(t, err)
		assert.Equal(t, 0.0, v.FineAmount)
	})
}

func TestParseIssueDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"slash timestamp with offset", "2023/01/15 08:30:00+00", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"iso timestamp", "2023-01-15T08:30:00", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"space timestamp", "2023-01-15 08:30:00", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"bare date", "2023-01-15", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"us slashes", "01/15/2023", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  2023-01-15  ", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseIssueDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}

	t.Run("garbage", func(t *testing.T) {
		_, err := parseIssueDate("15th of January")
		assert.ErrorIs(t, err, ErrBadDate)
	})
}

func TestCombineHHMM(t *testing.T) {
	baseDate := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		hhmm     string
		expected time.Time
	}{
		{"four digits", "1510", time.Date(2023, 1, 15, 15, 10, 0, 0, time.UTC)},
		{"three digits", "930", time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC)},
		{"midnight", "0000", baseDate},
		{"empty", "", baseDate},
		{"too long", "12345", baseDate},
		{"invalid hour", "2510", baseDate},
		{"invalid minute", "1299", baseDate},
		{"not a number", "noon", baseDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := combineHHMM(baseDate, tt.hhmm)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseGeo(t *testing.T) {
	tests := []struct {
		name     string
		lat      string
		lon      string
		expected Geo
		ok       bool
	}{
		{"valid pair", "38.9072", "-77.0369", Geo{Lat: 38.9072, Lon: -77.0369}, true},
		{"empty latitude", "", "-77.0369", Geo{}, false},
		{"empty longitude", "38.9072", "", Geo{}, false},
		{"both empty", "", "", Geo{}, false},
		{"zero placeholder", "0", "0", Geo{}, false},
		{"zero lat only is kept", "0", "-77.0369", Geo{Lat: 0, Lon: -77.0369}, true},
		{"garbage latitude", "north", "-77.0369", Geo{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := ParseGeo(tt.lat, tt.lon)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, g)
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"plain", "50", 50},
		{"dollar sign", "$50", 50},
		{"cents", "$32.50", 32.5},
		{"thousands comma", "$1,250", 1250},
		{"accounting negative", "($25)", -25},
		{"empty", "", 0},
		{"garbage", "fifty", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseMoney(tt.input))
		})
	}
}

func TestBoundsContains(t *testing.T) {
	tests := []struct {
		name     string
		geo      Geo
		expected bool
	}{
		{"downtown", Geo{Lat: 38.9072, Lon: -77.0369}, true},
		{"south edge inclusive", Geo{Lat: 38.79, Lon: -77.0}, true},
		{"north edge inclusive", Geo{Lat: 39.00, Lon: -77.0}, true},
		{"north of the district", Geo{Lat: 39.5, Lon: -77.0}, false},
		{"west of the district", Geo{Lat: 38.9, Lon: -77.5}, false},
		{"null island", Geo{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DCBounds.Contains(tt.geo))
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	t.Run("inside bounds", func(t *testing.T) {
		v := Violation{Geo: Geo{Lat: 38.9, Lon: -77.03}, HasCoords: true}
		assert.NoError(t, ValidateCoordinates(v, DCBounds))
	})

	t.Run("missing coordinates", func(t *testing.T) {
		err := ValidateCoordinates(Violation{}, DCBounds)
		assert.ErrorIs(t, err, ErrMissingCoordinates)
		assert.Equal(t, ReasonMissingCoords, DropReason(err))
	})

	t.Run("outside bounds", func(t *testing.T) {
		v := Violation{Geo: Geo{Lat: 40.0, Lon: -77.03}, HasCoords: true}
		err := ValidateCoordinates(v, DCBounds)
		assert.ErrorIs(t, err, ErrOutOfBounds)
		assert.Equal(t, ReasonOutOfBounds, DropReason(err))
	})
}

func TestDropReason(t *testing.T) {
	assert.Equal(t, ReasonBadDate, DropReason(ErrBadDate))
	assert.Equal(t, ReasonMissingCoords, DropReason(ErrMissingCoordinates))
	assert.Equal(t, ReasonOutOfBounds, DropReason(ErrOutOfBounds))
	assert.Empty(t, DropReason(assert.AnError))
	assert.Empty(t, DropReason(nil))
}

func TestFinalizeViolation(t *testing.T) {
	fixedTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	v := FinalizeViolation(Violation{TicketID: "T1"})
	assert.Equal(t, fixedTime, v.ProcessedAt)
}

func TestViolationAttributeStrings(t *testing.T) {
	v := Violation{IssuedAt: time.Date(2023, 1, 15, 15, 10, 0, 0, time.UTC)}
	assert.Equal(t, "2023-01-15", v.DateString())
	assert.Equal(t, "15:10:00", v.TimeString())
}
