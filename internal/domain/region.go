package domain

import (
	"context"
	"strings"
)

// Vertex is one (lon, lat) point of a region boundary.
type Vertex struct {
	Lon float64
	Lat float64
}

// RegionSource supplies the target region. Both methods may fail when the
// underlying polygon is unavailable; callers treat that as a degradation.
type RegionSource interface {
	// Mask returns the cell-membership grid for the given axes.
	Mask(ctx context.Context, axes Axes) (RegionMask, error)
	// Boundary returns the exterior ring of the region.
	Boundary(ctx context.Context) ([]Vertex, error)
}

// RegionSlug turns a region name into a file-name prefix: "New Zealand"
// becomes "new_zealand".
func RegionSlug(region string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(region), " ", "_"))
}
