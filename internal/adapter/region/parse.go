package region

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ctessum/geom"
)

var (
	// ErrRegionNotFound is returned when no feature matches the region name.
	ErrRegionNotFound = errors.New("region not found")
	// ErrUnsupportedGeometry is returned for geometries that are not polygonal.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
)

// nameKeys are the feature properties checked, in order, when selecting a
// region from a FeatureCollection.
var nameKeys = []string{"NAME", "ADMIN", "name"}

type document struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    *document       `json:"geometry"`
	Properties  map[string]any  `json:"properties"`
	Features    []document      `json:"features"`
}

// Parse decodes a GeoJSON Geometry, Feature or FeatureCollection and returns
// the polygon(s) of the named region. A bare geometry or a single feature is
// accepted regardless of name.
func Parse(b []byte, name string) (geom.MultiPolygon, error) {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	switch doc.Type {
	case "FeatureCollection":
		for _, f := range doc.Features {
			if matches(f.Properties, name) {
				return featureGeometry(f)
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrRegionNotFound, name)
	case "Feature":
		return featureGeometry(doc)
	default:
		return polygons(doc)
	}
}

func matches(props map[string]any, name string) bool {
	for _, k := range nameKeys {
		if v, ok := props[k].(string); ok && strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}

func featureGeometry(f document) (geom.MultiPolygon, error) {
	if f.Geometry == nil {
		return nil, fmt.Errorf("%w: feature without geometry", ErrUnsupportedGeometry)
	}
	return polygons(*f.Geometry)
}

func polygons(g document) (geom.MultiPolygon, error) {
	switch g.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		return geom.MultiPolygon{toPolygon(rings)}, nil
	case "MultiPolygon":
		var parts [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &parts); err != nil {
			return nil, fmt.Errorf("decode multipolygon: %w", err)
		}
		mp := make(geom.MultiPolygon, 0, len(parts))
		for _, rings := range parts {
			mp = append(mp, toPolygon(rings))
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGeometry, g.Type)
	}
}

func toPolygon(rings [][][2]float64) geom.Polygon {
	p := make(geom.Polygon, len(rings))
	for i, ring := range rings {
		path := make(geom.Path, len(ring))
		for j, c := range ring {
			path[j] = geom.Point{X: c[0], Y: c[1]}
		}
		p[i] = path
	}
	return p
}
