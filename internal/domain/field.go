package domain

import "math"

// Missing is the in-memory sentinel for "no value". It never reaches the export
// payload: the exporter converts it to an explicit null.
var Missing = float32(math.NaN())

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float32) bool { return v != v }

// Range is a closed valid interval for a variable.
type Range struct {
	Min float64
	Max float64
}

// Clip bounds v to the range. NaN passes through unchanged.
func (r Range) Clip(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies inside the closed range.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Field is a 2-D (lat, lon) float64 field stored row-major.
type Field struct {
	H, W int
	Data []float64
}

// NewField allocates a zero field.
func NewField(h, w int) Field {
	return Field{H: h, W: w, Data: make([]float64, h*w)}
}

// At returns the value at row i, column j.
func (f Field) At(i, j int) float64 { return f.Data[i*f.W+j] }

// Clone returns a deep copy.
func (f Field) Clone() Field {
	out := Field{H: f.H, W: f.W, Data: make([]float64, len(f.Data))}
	copy(out.Data, f.Data)
	return out
}

// Grid is a 3-D (time, lat, lon) float32 array stored row-major. Missing cells
// hold NaN.
type Grid struct {
	T, H, W int
	Data    []float32
}

// NewGrid allocates a zero grid.
func NewGrid(t, h, w int) *Grid {
	return &Grid{T: t, H: h, W: w, Data: make([]float32, t*h*w)}
}

// Index returns the flat offset of (t, i, j).
func (g *Grid) Index(t, i, j int) int { return (t*g.H+i)*g.W + j }

// At returns the value at (t, i, j).
func (g *Grid) At(t, i, j int) float32 { return g.Data[g.Index(t, i, j)] }

// Set stores v at (t, i, j).
func (g *Grid) Set(t, i, j int, v float32) { g.Data[g.Index(t, i, j)] = v }

// Frame returns the 2-D slice for day t. It shares storage with g.
func (g *Grid) Frame(t int) []float32 {
	n := g.H * g.W
	return g.Data[t*n : (t+1)*n]
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{T: g.T, H: g.H, W: g.W, Data: make([]float32, len(g.Data))}
	copy(out.Data, g.Data)
	return out
}

// Shape returns (T, H, W).
func (g *Grid) Shape() [3]int { return [3]int{g.T, g.H, g.W} }

// Present returns the non-missing values widened to float64.
func (g *Grid) Present() []float64 {
	out := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if !IsMissing(v) {
			out = append(out, float64(v))
		}
	}
	return out
}
