package shapefile

import (
	"fmt"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

// PointFeature is one point geometry with its attribute row, as read
// back from a produced artifact.
type PointFeature struct {
	Geo        domain.Geo
	Attributes map[string]string
}

// ReadPoints loads a point shapefile. Used by cmd/validate and the
// round-trip tests; the ETL itself never reads its own output.
func ReadPoints(path string) ([]PointFeature, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	var features []PointFeature

	for r.Next() {
		n, shape := r.Shape()
		point, ok := shape.(*shp.Point)
		if !ok {
			return nil, fmt.Errorf("feature %d: expected point geometry, got %T", n, shape)
		}

		attrs := make(map[string]string, len(fields))
		for k := range fields {
			attrs[fields[k].String()] = r.ReadAttribute(n, k)
		}

		features = append(features, PointFeature{
			Geo:        domain.Geo{Lat: point.Y, Lon: point.X},
			Attributes: attrs,
		})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}

	return features, nil
}

// PolygonFeature is one polygon with its attribute row. Ring order is
// preserved as stored; the first ring is the exterior.
type PolygonFeature struct {
	Polygon    orb.Polygon
	Attributes map[string]string
}

// ReadPolygons loads a polygon shapefile, e.g. the enforcement beats or
// census tracts reference layers.
func ReadPolygons(path string) ([]PolygonFeature, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	var features []PolygonFeature

	for r.Next() {
		n, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			return nil, fmt.Errorf("feature %d: expected polygon geometry, got %T", n, shape)
		}

		attrs := make(map[string]string, len(fields))
		for k := range fields {
			attrs[fields[k].String()] = r.ReadAttribute(n, k)
		}

		features = append(features, PolygonFeature{
			Polygon:    toOrbPolygon(poly),
			Attributes: attrs,
		})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}

	return features, nil
}

// toOrbPolygon splits a shapefile polygon's flat point slice into rings
// along its part offsets.
func toOrbPolygon(p *shp.Polygon) orb.Polygon {
	polygon := make(orb.Polygon, 0, len(p.Parts))
	for i, start := range p.Parts {
		end := int32(len(p.Points))
		if i+1 < len(p.Parts) {
			end = p.Parts[i+1]
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		polygon = append(polygon, ring)
	}
	return polygon
}
