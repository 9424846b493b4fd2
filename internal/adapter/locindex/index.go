// Package locindex builds a coordinate index over the dataset's own
// location strings and resolves missing coordinates against it, exactly
// or by validated fuzzy match. It is the batch-local analogue of an
// external geocoder: all coordinates it hands out were observed in the
// input.
package locindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

// Index maps cleaned location strings to the first coordinate pair
// observed for them.
type Index struct {
	coords map[string]domain.Geo
	known  []string // insertion-ordered keys, for deterministic fuzzy scans
}

// NewIndex returns an empty location index.
func NewIndex() *Index {
	return &Index{coords: make(map[string]domain.Geo)}
}

// Add records a location/coordinate pairing. First observation wins so a
// location repeated with divergent coordinates stays stable.
func (ix *Index) Add(location string, g domain.Geo) {
	key := domain.CleanLocation(location)
	if key == "" || g.Zero() {
		return
	}
	if _, ok := ix.coords[key]; ok {
		return
	}
	ix.coords[key] = g
	ix.known = append(ix.known, key)
}

// Len returns the number of distinct known locations.
func (ix *Index) Len() int {
	return len(ix.coords)
}

// lookup returns the coordinates recorded for a cleaned key.
func (ix *Index) lookup(key string) (domain.Geo, bool) {
	g, ok := ix.coords[key]
	return g, ok
}

// recordSource is the slice of the extractor contract the index builder
// needs. Satisfied by *csvsource.Source.
type recordSource interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
}

// Build drains src and indexes every row that carries both a usable
// location string and parseable coordinates. This is pass one of the
// two-pass run; memory is bounded by the number of distinct locations,
// not the number of rows.
func Build(ctx context.Context, src recordSource, batchSize int, logger *slog.Logger) (*Index, error) {
	ix := NewIndex()
	rows := 0

	for {
		batch, err := src.ExtractBatch(ctx, batchSize)
		if err != nil {
			return nil, fmt.Errorf("build location index: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		rows += len(batch)
		for _, raw := range batch {
			loc := raw.Fields[domain.ColLocation]
			if domain.TrivialLocation(loc) {
				continue
			}
			if g, ok := domain.ParseGeo(raw.Fields[domain.ColLatitude], raw.Fields[domain.ColLongitude]); ok {
				ix.Add(loc, g)
			}
		}
	}

	logger.Info("location index built", "rows_scanned", rows, "known_locations", ix.Len())
	return ix, nil
}

// ExactResolver resolves a location only when its cleaned form is already
// in the index.
type ExactResolver struct {
	index *Index
}

// NewExactResolver wraps an index in the exact-match resolver.
func NewExactResolver(ix *Index) *ExactResolver {
	return &ExactResolver{index: ix}
}

// Resolve implements domain.CoordinateResolver.
func (r *ExactResolver) Resolve(_ context.Context, location string) (domain.ResolvedCoords, bool, error) {
	key := domain.CleanLocation(location)
	if key == "" {
		return domain.ResolvedCoords{}, false, nil
	}
	g, ok := r.index.lookup(key)
	if !ok {
		return domain.ResolvedCoords{}, false, nil
	}
	return domain.ResolvedCoords{
		Geo:     g,
		Matched: key,
		Score:   100,
		Method:  domain.CoordExact,
	}, true, nil
}
