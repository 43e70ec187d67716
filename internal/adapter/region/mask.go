package region

import (
	"math"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/ctessum/geom"
)

// ComputeMask marks every (lat, lon) cell whose center lies inside or on the
// edge of any part of mp.
func ComputeMask(mp geom.MultiPolygon, axes domain.Axes) domain.RegionMask {
	h, w := axes.Shape()
	mask := domain.NewRegionMask(h, w)
	if len(mp) == 0 {
		return mask
	}
	b := mp.Bounds()
	for i, lat := range axes.Lat {
		for j, lon := range axes.Lon {
			if lon < b.Min.X || lon > b.Max.X || lat < b.Min.Y || lat > b.Max.Y {
				continue
			}
			if (geom.Point{X: lon, Y: lat}).Within(mp) != geom.Outside {
				mask.Set(i, j, true)
			}
		}
	}
	return mask
}

// ExteriorRing returns the exterior ring of the largest part of mp.
func ExteriorRing(mp geom.MultiPolygon) []domain.Vertex {
	var best geom.Polygon
	bestArea := -1.0
	for _, p := range mp {
		if len(p) == 0 {
			continue
		}
		if a := math.Abs(p.Area()); a > bestArea {
			best, bestArea = p, a
		}
	}
	if best == nil {
		return nil
	}
	ring := make([]domain.Vertex, len(best[0]))
	for i, pt := range best[0] {
		ring[i] = domain.Vertex{Lon: pt.X, Lat: pt.Y}
	}
	return ring
}
