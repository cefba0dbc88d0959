package overpass

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrInvalidGeometry is returned when a geometry kind string does not match
// one of the four recognized literals.
var ErrInvalidGeometry = fmt.Errorf("invalid geometry kind (expected point, linestring, polygon or multipolygon)")

// GeometryKind selects which GeoJSON geometry type to extract from a
// response.
type GeometryKind int

const (
	Point GeometryKind = iota
	LineString
	Polygon
	MultiPolygon
)

// String returns the lowercase geometry kind name.
func (k GeometryKind) String() string {
	switch k {
	case Point:
		return "point"
	case LineString:
		return "linestring"
	case Polygon:
		return "polygon"
	case MultiPolygon:
		return "multipolygon"
	default:
		return "unknown"
	}
}

// ParseGeometryKind matches a geometry kind name case-insensitively.
// It returns ErrInvalidGeometry for anything but the four recognized
// literals.
func ParseGeometryKind(s string) (GeometryKind, error) {
	switch strings.ToLower(s) {
	case "point":
		return Point, nil
	case "linestring":
		return LineString, nil
	case "polygon":
		return Polygon, nil
	case "multipolygon":
		return MultiPolygon, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGeometry, s)
	}
}

// FeatureCollection converts an Overpass response into a GeoJSON
// FeatureCollection of the requested geometry kind. Elements that do not
// match the kind's element type are silently dropped. Every produced
// feature carries the source element's ID and its tags verbatim as
// properties.
//
// Coordinates are emitted in GeoJSON [lon, lat] order, the reverse of the
// (lat, lon) order used for bounding boxes.
func FeatureCollection(resp *Response, kind GeometryKind) (*geojson.FeatureCollection, error) {
	switch kind {
	case Point:
		return asPoints(resp.Elements), nil
	case LineString:
		return asLineStrings(resp.Elements), nil
	case Polygon:
		return asPolygons(resp.Elements), nil
	case MultiPolygon:
		return asMultiPolygons(resp.Elements), nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidGeometry, int(kind))
	}
}

// newFeature wraps a geometry with the element's ID and tags.
func newFeature(elem Element, geom orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(geom)
	f.ID = elem.ID
	for k, v := range elem.Tags {
		f.Properties[k] = v
	}
	return f
}

// asPoints maps node elements to Point features.
func asPoints(elements []Element) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, elem := range elements {
		if elem.Type != "node" {
			continue
		}
		fc.Append(newFeature(elem, orb.Point{elem.Lon, elem.Lat}))
	}
	return fc
}

// asLineStrings maps way elements to LineString features, vertices in
// element order.
func asLineStrings(elements []Element) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, elem := range elements {
		if elem.Type != "way" {
			continue
		}
		ls := make(orb.LineString, 0, len(elem.Geometry))
		for _, v := range elem.Geometry {
			ls = append(ls, orb.Point{v.Lon, v.Lat})
		}
		fc.Append(newFeature(elem, ls))
	}
	return fc
}

// asPolygons maps way elements to single-ring Polygon features. The way is
// assumed to be closed already by the query semantics; closure is neither
// checked nor enforced.
func asPolygons(elements []Element) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, elem := range elements {
		if elem.Type != "way" {
			continue
		}
		ring := make(orb.Ring, 0, len(elem.Geometry))
		for _, v := range elem.Geometry {
			ring = append(ring, orb.Point{v.Lon, v.Lat})
		}
		fc.Append(newFeature(elem, orb.Polygon{ring}))
	}
	return fc
}

// asMultiPolygons maps multipolygon relations to MultiPolygon features.
// Each member contributes one ring and all rings land in a single polygon's
// ring list. Member roles are not inspected, so inner rings are not encoded
// as holes; a known simplification.
func asMultiPolygons(elements []Element) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, elem := range elements {
		if elem.Type != "relation" || elem.Tags["type"] != "multipolygon" {
			continue
		}
		poly := make(orb.Polygon, 0, len(elem.Members))
		for _, member := range elem.Members {
			ring := make(orb.Ring, 0, len(member.Geometry))
			for _, v := range member.Geometry {
				ring = append(ring, orb.Point{v.Lon, v.Lat})
			}
			poly = append(poly, ring)
		}
		fc.Append(newFeature(elem, orb.MultiPolygon{poly}))
	}
	return fc
}
