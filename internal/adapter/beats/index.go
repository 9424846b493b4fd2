// Package beats assigns reference-zone attributes (enforcement beats,
// census tracts) to violation points by point-in-polygon lookup over an
// r-tree index of the zone layer.
package beats

import (
	"fmt"
	"log/slog"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/couchcryptid/parking-violations-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

// Index answers "which zone contains this point" for one polygon layer.
type Index struct {
	tree  *rtreego.Rtree
	layer string
}

type zoneEntry struct {
	rect *rtreego.Rect
	name string
	poly orb.Polygon
}

func (z *zoneEntry) Bounds() *rtreego.Rect {
	return z.rect
}

// Load reads a polygon shapefile and indexes its features by bounding
// box. nameField selects the attribute carried into the output (e.g.
// "BEAT" or "GEOID"); features without it are indexed with an empty
// name rather than rejected.
func Load(path, nameField string, logger *slog.Logger) (*Index, error) {
	features, err := shapefile.ReadPolygons(path)
	if err != nil {
		return nil, fmt.Errorf("load zone layer: %w", err)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("zone layer %s has no features", path)
	}

	tree := rtreego.NewTree(2, 8, 32)
	for i := range features {
		entry, err := newZoneEntry(features[i], nameField)
		if err != nil {
			return nil, fmt.Errorf("zone feature %d: %w", i, err)
		}
		tree.Insert(entry)
	}

	logger.Info("zone layer indexed", "path", path, "name_field", nameField, "zones", len(features))
	return &Index{tree: tree, layer: nameField}, nil
}

func newZoneEntry(f shapefile.PolygonFeature, nameField string) (*zoneEntry, error) {
	bound := f.Polygon.Bound()
	// rtreego rejects zero-extent rects; floor the lengths so degenerate
	// zone geometries still index.
	lengths := []float64{
		max(bound.Max[0]-bound.Min[0], 1e-9),
		max(bound.Max[1]-bound.Min[1], 1e-9),
	}
	rect, err := rtreego.NewRect(rtreego.Point{bound.Min[0], bound.Min[1]}, lengths)
	if err != nil {
		return nil, err
	}
	return &zoneEntry{
		rect: rect,
		name: f.Attributes[nameField],
		poly: f.Polygon,
	}, nil
}

// Locate returns the name of the zone containing the point, or "" when
// no zone matches. Candidate zones come from the r-tree; the exact test
// is planar point-in-polygon.
func (ix *Index) Locate(g domain.Geo) string {
	point := orb.Point{g.Lon, g.Lat}
	candidates := ix.tree.SearchIntersect(rtreego.Point{g.Lon, g.Lat}.ToRect(1e-9))
	for _, c := range candidates {
		zone := c.(*zoneEntry)
		if planar.PolygonContains(zone.poly, point) {
			return zone.name
		}
	}
	return ""
}
