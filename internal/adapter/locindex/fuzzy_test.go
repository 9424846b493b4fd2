package locindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

func TestFuzzyResolver(t *testing.T) {
	ctx := context.Background()

	ix := NewIndex()
	ix.Add("1400 BLOCK K ST NW", domain.Geo{Lat: 38.90, Lon: -77.03})
	ix.Add("1400 BLOCK K ST SE", domain.Geo{Lat: 38.88, Lon: -76.99})
	ix.Add("800 BLOCK H ST NE", domain.Geo{Lat: 38.90, Lon: -76.99})

	r := NewFuzzyResolver(ix, 85)

	t.Run("exact match short-circuits", func(t *testing.T) {
		result, ok, err := r.Resolve(ctx, "1400 BLOCK K ST NW")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.CoordExact, result.Method)
		assert.Equal(t, 100, result.Score)
	})

	t.Run("near match on the same segment", func(t *testing.T) {
		result, ok, err := r.Resolve(ctx, "1400 BLK K ST NW")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.CoordFuzzy, result.Method)
		assert.Equal(t, "1400 block k st nw", result.Matched)
		assert.Equal(t, 38.90, result.Geo.Lat)
		assert.GreaterOrEqual(t, result.Score, 85)
	})

	t.Run("quadrant mismatch is rejected", func(t *testing.T) {
		// "1425 block k st nw" is closest to the NW entry, but if the best
		// scoring candidate were the SE entry the structural check must
		// veto it. Query a string whose only high scorer is the SE entry.
		_, ok, err := NewFuzzyResolver(indexOf(t, "1400 BLOCK K ST SE"), 85).
			Resolve(ctx, "1400 BLOCK K ST NW")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("different street is rejected", func(t *testing.T) {
		_, ok, err := NewFuzzyResolver(indexOf(t, "800 BLOCK H ST NE"), 85).
			Resolve(ctx, "800 BLOCK M ST NE")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("low score is rejected", func(t *testing.T) {
		strict := NewFuzzyResolver(ix, 99)
		_, ok, err := strict.Resolve(ctx, "1400 BLK K ST NW")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty location", func(t *testing.T) {
		_, ok, err := r.Resolve(ctx, "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty index", func(t *testing.T) {
		_, ok, err := NewFuzzyResolver(NewIndex(), 85).Resolve(ctx, "1400 BLOCK K ST NW")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// indexOf builds a single-entry index with fixed coordinates.
func indexOf(t *testing.T, location string) *Index {
	t.Helper()
	ix := NewIndex()
	ix.Add(location, domain.Geo{Lat: 38.9, Lon: -77.0})
	return ix
}
