package domain

import (
	"fmt"
	"math"
)

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Validate reports ErrInvalidBounds when either min is not strictly below its max.
func (b Bounds) Validate() error {
	if !(b.LatMin < b.LatMax) {
		return fmt.Errorf("%w: lat_min %g >= lat_max %g", ErrInvalidBounds, b.LatMin, b.LatMax)
	}
	if !(b.LonMin < b.LonMax) {
		return fmt.Errorf("%w: lon_min %g >= lon_max %g", ErrInvalidBounds, b.LonMin, b.LonMax)
	}
	return nil
}

// Axes holds the fixed lat/lon coordinate axes shared by every variable of a dataset.
type Axes struct {
	Lat []float64
	Lon []float64
}

// Shape returns the (lat, lon) grid dimensions.
func (a Axes) Shape() (int, int) { return len(a.Lat), len(a.Lon) }

// Equal reports whether both axes have identical length and values.
func (a Axes) Equal(b Axes) bool {
	return equalFloats(a.Lat, b.Lat) && equalFloats(a.Lon, b.Lon)
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BuildAxes derives the lat and lon axes from a bounding box and step. Values are
// produced by repeated addition of step from the minimum, stopping before the
// maximum, so the axis length is ceil((max-min)/step) and the last value may sit
// anywhere within one step of max. No rounding correction is applied.
func BuildAxes(b Bounds, step float64) (Axes, error) {
	if err := b.Validate(); err != nil {
		return Axes{}, err
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return Axes{}, fmt.Errorf("%w: %g", ErrInvalidResolution, step)
	}
	return Axes{
		Lat: arange(b.LatMin, b.LatMax, step),
		Lon: arange(b.LonMin, b.LonMax, step),
	}, nil
}

func arange(lo, hi, step float64) []float64 {
	n := int(math.Ceil((hi - lo) / step))
	out := make([]float64, n)
	v := lo
	for i := range out {
		out[i] = v
		v += step
	}
	return out
}

// Mesh is the outer-product meshgrid of a pair of axes, row-major over (lat, lon).
type Mesh struct {
	H, W int
	Lat  []float64
	Lon  []float64
}

// Meshgrid expands the axes into full 2-D coordinate fields.
func Meshgrid(a Axes) Mesh {
	h, w := a.Shape()
	m := Mesh{H: h, W: w, Lat: make([]float64, h*w), Lon: make([]float64, h*w)}
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			m.Lat[i*w+j] = a.Lat[i]
			m.Lon[i*w+j] = a.Lon[j]
		}
	}
	return m
}
