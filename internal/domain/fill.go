package domain

import (
	"context"
	"log/slog"
)

// ResolvedCoords is a coordinate pair recovered for a location string.
type ResolvedCoords struct {
	Geo     Geo
	Matched string // known location that supplied the pair
	Score   int    // fuzzy ratio, 100 for an exact match
	Method  string // CoordExact or CoordFuzzy
}

// CoordinateResolver links a location description to coordinates observed
// elsewhere in the dataset. Resolvers never synthesize coordinates.
type CoordinateResolver interface {
	Resolve(ctx context.Context, location string) (ResolvedCoords, bool, error)
}

// EnrichWithCoordinates fills missing coordinates from the resolver.
// Records that already carry coordinates are tagged CoordOriginal and
// returned unchanged. Resolver failures degrade gracefully: the record is
// returned still lacking coordinates and will be dropped downstream.
func EnrichWithCoordinates(ctx context.Context, v Violation, resolver CoordinateResolver, logger *slog.Logger) Violation {
	if v.HasCoords {
		v.CoordSource = CoordOriginal
		return v
	}
	if resolver == nil || TrivialLocation(v.Location) {
		return v
	}

	result, ok, err := resolver.Resolve(ctx, v.Location)
	if err != nil {
		logger.Warn("coordinate fill failed",
			"ticket_id", v.TicketID,
			"location", v.Location,
			"error", err,
		)
		return v
	}
	if !ok {
		return v
	}

	v.Geo = result.Geo
	v.HasCoords = true
	v.CoordSource = result.Method
	return v
}
