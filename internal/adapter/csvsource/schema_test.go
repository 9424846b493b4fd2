package csvsource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			"canonical passes through",
			[]string{"TICKET_NUMBER", "ISSUE_DATE", "LATITUDE"},
			[]string{domain.ColTicketNumber, domain.ColIssueDate, domain.ColLatitude},
		},
		{
			"aliases are mapped",
			[]string{"TICKET_NO", "LAT", "LON", "FINE", "DISPOSITION"},
			[]string{domain.ColTicketNumber, domain.ColLatitude, domain.ColLongitude, domain.ColFineAmount, domain.ColDisposition},
		},
		{
			"case and whitespace are normalized",
			[]string{" ticket_number ", "x", "y"},
			[]string{domain.ColTicketNumber, domain.ColLongitude, domain.ColLatitude},
		},
		{
			"BOM on the first cell only",
			[]string{"\uFEFFROWID_", "LOCATION"},
			[]string{domain.ColObjectID, domain.ColLocation},
		},
		{
			"unknown columns carry through",
			[]string{"MULTI_OWNER_NUMBER", "XCOORD"},
			[]string{"MULTI_OWNER_NUMBER", "XCOORD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeHeader(tt.input))
		})
	}
}
