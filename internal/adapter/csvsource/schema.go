package csvsource

import (
	"strings"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

// headerAliases maps the column spellings seen across the monthly
// extracts onto the canonical schema. Headers are uppercased and trimmed
// before lookup; unknown columns are carried through unchanged so the
// transform stage can ignore them.
var headerAliases = map[string]string{
	"TICKET_NO":       domain.ColTicketNumber,
	"CITATION_NUMBER": domain.ColTicketNumber,
	"ROWID_":          domain.ColObjectID,
	"ROWID":           domain.ColObjectID,

	"VIOLATION_DESCRIPTION": domain.ColViolationDesc,
	"VIOLATION_DESC":        domain.ColViolationDesc,

	"LAT": domain.ColLatitude,
	"LON": domain.ColLongitude,
	"LNG": domain.ColLongitude,
	"Y":   domain.ColLatitude,
	"X":   domain.ColLongitude,

	"FINE":        domain.ColFineAmount,
	"FINE_AMT":    domain.ColFineAmount,
	"FINE_AMOUNT": domain.ColFineAmount,

	"AGENCY":               domain.ColAgency,
	"ISSUING_AGENCY_SHORT": domain.ColAgency,

	"DISPOSITION":      domain.ColDisposition,
	"DISPOSITION_TYPE": domain.ColDisposition,
}

// normalizeHeader maps a raw CSV header row onto canonical column names.
// The first cell may carry a UTF-8 BOM, which is stripped.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		h = strings.ToUpper(strings.TrimSpace(h))
		if canonical, ok := headerAliases[h]; ok {
			h = canonical
		}
		out[i] = h
	}
	return out
}
