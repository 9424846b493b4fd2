package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
	"github.com/couchcryptid/parking-violations-etl/internal/pipeline"
)

// fixedResolver always resolves to the same coordinates.
type fixedResolver struct {
	geo domain.Geo
}

func (r *fixedResolver) Resolve(_ context.Context, _ string) (domain.ResolvedCoords, bool, error) {
	return domain.ResolvedCoords{Geo: r.geo, Score: 100, Method: domain.CoordExact}, true, nil
}

// namedLocator returns the same zone name for any point.
type namedLocator struct {
	name string
}

func (l *namedLocator) Locate(_ domain.Geo) string { return l.name }

func violationRow(id string, fields map[string]string) domain.RawRecord {
	all := map[string]string{
		domain.ColTicketNumber: id,
		domain.ColIssueDate:    "2023-01-15",
	}
	for k, v := range fields {
		all[k] = v
	}
	return domain.RawRecord{SourceFile: "jan.csv", Line: 2, Fields: all}
}

func TestViolationTransformer(t *testing.T) {
	ctx := context.Background()

	t.Run("row with coordinates passes", func(t *testing.T) {
		tfm := pipeline.NewTransformer(nil, nil, nil, domain.DCBounds, testLogger())

		v, err := tfm.Transform(ctx, violationRow("T1", map[string]string{
			domain.ColLatitude:  "38.90",
			domain.ColLongitude: "-77.03",
		}))

		require.NoError(t, err)
		assert.Equal(t, "T1", v.TicketID)
		assert.Equal(t, domain.CoordOriginal, v.CoordSource)
		assert.False(t, v.ProcessedAt.IsZero())
		assert.Empty(t, v.Beat)
		assert.Empty(t, v.Tract)
	})

	t.Run("missing coordinates filled by the resolver", func(t *testing.T) {
		resolver := &fixedResolver{geo: domain.Geo{Lat: 38.91, Lon: -77.02}}
		tfm := pipeline.NewTransformer(resolver, nil, nil, domain.DCBounds, testLogger())

		v, err := tfm.Transform(ctx, violationRow("T2", map[string]string{
			domain.ColLocation: "1400 BLOCK K ST NW",
		}))

		require.NoError(t, err)
		assert.Equal(t, domain.CoordExact, v.CoordSource)
		assert.Equal(t, domain.Geo{Lat: 38.91, Lon: -77.02}, v.Geo)
	})

	t.Run("missing coordinates without resolver drop the row", func(t *testing.T) {
		tfm := pipeline.NewTransformer(nil, nil, nil, domain.DCBounds, testLogger())

		_, err := tfm.Transform(ctx, violationRow("T3", map[string]string{
			domain.ColLocation: "1400 BLOCK K ST NW",
		}))

		assert.ErrorIs(t, err, domain.ErrMissingCoordinates)
	})

	t.Run("out of bounds drops the row even after fill", func(t *testing.T) {
		resolver := &fixedResolver{geo: domain.Geo{Lat: 45.0, Lon: -77.02}}
		tfm := pipeline.NewTransformer(resolver, nil, nil, domain.DCBounds, testLogger())

		_, err := tfm.Transform(ctx, violationRow("T4", map[string]string{
			domain.ColLocation: "1400 BLOCK K ST NW",
		}))

		assert.ErrorIs(t, err, domain.ErrOutOfBounds)
	})

	t.Run("bad date drops the row", func(t *testing.T) {
		tfm := pipeline.NewTransformer(nil, nil, nil, domain.DCBounds, testLogger())

		_, err := tfm.Transform(ctx, violationRow("T5", map[string]string{
			domain.ColIssueDate: "never",
		}))

		assert.ErrorIs(t, err, domain.ErrBadDate)
	})

	t.Run("zones assigned when locators are set", func(t *testing.T) {
		tfm := pipeline.NewTransformer(nil,
			&namedLocator{name: "B-7"},
			&namedLocator{name: "11001004701"},
			domain.DCBounds, testLogger())

		v, err := tfm.Transform(ctx, violationRow("T6", map[string]string{
			domain.ColLatitude:  "38.90",
			domain.ColLongitude: "-77.03",
		}))

		require.NoError(t, err)
		assert.Equal(t, "B-7", v.Beat)
		assert.Equal(t, "11001004701", v.Tract)
	})
}
