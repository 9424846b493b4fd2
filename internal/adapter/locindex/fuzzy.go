package locindex

import (
	"context"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

// FuzzyResolver resolves a location by exact lookup first, then by the
// best fuzzy-ratio match over the known locations. A fuzzy candidate is
// accepted only when it clears the minimum score AND the block/street/
// quadrant structure of both strings agrees, so "1400 BLOCK K ST NW"
// can never borrow coordinates from "1400 BLOCK K ST SE".
type FuzzyResolver struct {
	index    *Index
	minScore int
}

// NewFuzzyResolver creates a fuzzy resolver over the index.
func NewFuzzyResolver(ix *Index, minScore int) *FuzzyResolver {
	return &FuzzyResolver{index: ix, minScore: minScore}
}

// Resolve implements domain.CoordinateResolver.
func (r *FuzzyResolver) Resolve(ctx context.Context, location string) (domain.ResolvedCoords, bool, error) {
	key := domain.CleanLocation(location)
	if key == "" {
		return domain.ResolvedCoords{}, false, nil
	}

	if g, ok := r.index.lookup(key); ok {
		return domain.ResolvedCoords{Geo: g, Matched: key, Score: 100, Method: domain.CoordExact}, true, nil
	}

	match, score := r.bestMatch(ctx, key)
	if match == "" || score < r.minScore {
		return domain.ResolvedCoords{}, false, nil
	}
	if !domain.CompatibleLocations(key, match) {
		return domain.ResolvedCoords{}, false, nil
	}

	g, ok := r.index.lookup(match)
	if !ok {
		return domain.ResolvedCoords{}, false, nil
	}
	return domain.ResolvedCoords{
		Geo:     g,
		Matched: match,
		Score:   score,
		Method:  domain.CoordFuzzy,
	}, true, nil
}

// bestMatch scans the known locations for the highest simple ratio.
// The scan is linear; the cached decorator in front of this resolver
// keeps repeat lookups off this path.
func (r *FuzzyResolver) bestMatch(ctx context.Context, key string) (string, int) {
	best := ""
	bestScore := 0
	for i, candidate := range r.index.known {
		// Large indexes make this loop long; stay cancellable.
		if i%1024 == 0 && ctx.Err() != nil {
			return "", 0
		}
		if score := fuzzy.Ratio(key, candidate); score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best, bestScore
}
