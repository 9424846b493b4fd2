package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

// ZoneLocator maps a point to a reference-zone name ("" = no zone).
type ZoneLocator interface {
	Locate(g domain.Geo) string
}

// ViolationTransformer implements Transformer: parse, optional
// coordinate fill, bounds policy, optional zone assignment, finalize.
type ViolationTransformer struct {
	resolver domain.CoordinateResolver // nil disables coordinate fill
	beats    ZoneLocator               // nil disables beat assignment
	tracts   ZoneLocator               // nil disables tract assignment
	bounds   domain.Bounds
	logger   *slog.Logger
}

// NewTransformer creates a ViolationTransformer. Nil resolver/locators
// disable the corresponding enrichment.
func NewTransformer(resolver domain.CoordinateResolver, beats, tracts ZoneLocator, bounds domain.Bounds, logger *slog.Logger) *ViolationTransformer {
	return &ViolationTransformer{
		resolver: resolver,
		beats:    beats,
		tracts:   tracts,
		bounds:   bounds,
		logger:   logger,
	}
}

// Transform converts one raw row. Errors carrying a domain.DropReason
// mark the row for exclusion; the coordinate policy runs after fill so
// only rows that stayed coordinate-less get dropped.
func (t *ViolationTransformer) Transform(ctx context.Context, raw domain.RawRecord) (domain.Violation, error) {
	v, err := domain.ParseRecord(raw)
	if err != nil {
		return domain.Violation{}, err
	}

	v = domain.EnrichWithCoordinates(ctx, v, t.resolver, t.logger)

	if err := domain.ValidateCoordinates(v, t.bounds); err != nil {
		return domain.Violation{}, err
	}

	if t.beats != nil {
		v.Beat = t.beats.Locate(v.Geo)
	}
	if t.tracts != nil {
		v.Tract = t.tracts.Locate(v.Geo)
	}

	return domain.FinalizeViolation(v), nil
}
