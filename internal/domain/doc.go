// Package domain models District of Columbia parking-violation records.
//
// # Data Source
//
// Violations come from the DC open-data monthly extracts ("Parking
// Violations Issued in <Month> <Year>"), one CSV per month. Column names
// drift slightly between extracts; internal/adapter/csvsource reconciles
// the known aliases into the canonical Col* names defined in this package.
//
// # Column Conventions
//
// Issue time:
//
//	ISSUE_TIME is an integer in 24-hour HHMM notation, e.g. 1510 = 15:10.
//	Three-digit values are zero-padded: 930 → 0930. Values that do not
//	parse as a valid HHMM leave the issue timestamp at midnight; the date
//	itself comes from ISSUE_DATE.
//
// Fine amounts:
//
//	Dollar values with optional "$" prefix, thousands commas, and
//	accounting-style parentheses for negatives (refunds/adjustments):
//	"$50", "1,250.00", "(25.00)".
//
// Location strings:
//
//	"<block> BLOCK <street> <type> <quadrant>", e.g. "800 BLOCK K ST NW".
//	The quadrant is one of NW, NE, SW, SE. Block and quadrant agreement is
//	used to validate fuzzy coordinate-fill matches; see CompatibleLocations.
//
// Coordinates:
//
//	LATITUDE/LONGITUDE are WGS-84 decimal degrees. Empty values and the
//	(0,0) placeholder count as missing. Records whose coordinates fall
//	outside the configured bounding box (default: the District, lat
//	38.79–39.00, lon -77.12 to -76.90) are dropped, never clamped.
//
// # Coordinate Fill
//
// Many records carry a location string but no coordinates. When fill is
// enabled, coordinates observed elsewhere in the dataset for the same (or a
// validated fuzzy match of the same) location string are reused, and the
// record is tagged with its CoordSource ("exact" or "fuzzy"). Coordinates
// are only ever copied from observed pairs, never synthesized.
package domain
