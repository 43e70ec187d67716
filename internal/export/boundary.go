package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/ctessum/geom/encoding/geojson"
)

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string            `json:"type"`
	Properties map[string]any    `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// BoundaryFileName returns the boundary artifact name for a region.
func BoundaryFileName(region string) string {
	return domain.RegionSlug(region) + "_boundary.json"
}

// BoundaryFeature encodes the region's exterior ring as (lon, lat) pairs.
func BoundaryFeature(region string, ring []domain.Vertex) Feature {
	coords := make([][2]float64, len(ring))
	for i, v := range ring {
		coords[i] = [2]float64{v.Lon, v.Lat}
	}
	return Feature{
		Type:       "Feature",
		Properties: map[string]any{"name": region},
		Geometry:   &geojson.Geometry{Type: "Polygon", Coordinates: coords},
	}
}

// WriteBoundary writes the boundary feature with two-space indentation and
// returns its path.
func WriteBoundary(dir, region string, ring []domain.Vertex) (string, error) {
	if len(ring) < 3 {
		return "", fmt.Errorf("boundary ring has %d vertices", len(ring))
	}
	b, err := json.MarshalIndent(BoundaryFeature(region, ring), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal boundary: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, BoundaryFileName(region))
	if err := writeAtomic(path, b); err != nil {
		return "", err
	}
	return path, nil
}

// RemoveBoundary deletes a previously written boundary so a run without a
// region source never leaves a stale file behind.
func RemoveBoundary(dir, region string) error {
	err := os.Remove(filepath.Join(dir, BoundaryFileName(region)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ReadBoundary parses a boundary artifact back into its ring.
func ReadBoundary(path string) (string, []domain.Vertex, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	var raw struct {
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
		Geometry   struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return "", nil, fmt.Errorf("decode boundary: %w", err)
	}
	if raw.Type != "Feature" {
		return "", nil, fmt.Errorf("boundary type %q, want Feature", raw.Type)
	}
	ring := make([]domain.Vertex, len(raw.Geometry.Coordinates))
	for i, c := range raw.Geometry.Coordinates {
		ring[i] = domain.Vertex{Lon: c[0], Lat: c[1]}
	}
	name, _ := raw.Properties["name"].(string)
	return name, ring, nil
}
