package domain

import "fmt"

// RegionMask marks the (lat, lon) cells that belong to the target region.
type RegionMask struct {
	H, W   int
	Inside []bool
}

// NewRegionMask returns an all-outside mask.
func NewRegionMask(h, w int) RegionMask {
	return RegionMask{H: h, W: w, Inside: make([]bool, h*w)}
}

// Set marks cell (i, j).
func (m RegionMask) Set(i, j int, inside bool) { m.Inside[i*m.W+j] = inside }

// Contains reports whether cell (i, j) is inside the region.
func (m RegionMask) Contains(i, j int) bool { return m.Inside[i*m.W+j] }

// Count returns the number of inside cells.
func (m RegionMask) Count() int {
	n := 0
	for _, in := range m.Inside {
		if in {
			n++
		}
	}
	return n
}

// ApplyMask returns a copy of ds where every cell outside the mask is missing,
// in every variable and on every day. Applying the same mask twice is a no-op.
func ApplyMask(ds *Dataset, mask RegionMask) (*Dataset, error) {
	h, w := ds.Axes.Shape()
	if mask.H != h || mask.W != w || len(mask.Inside) != h*w {
		return nil, fmt.Errorf("%w: mask %dx%d, axes %dx%d", ErrAxisMismatch, mask.H, mask.W, h, w)
	}
	out := ds.Derive()
	for name, g := range ds.Vars {
		m := g.Clone()
		for t := 0; t < m.T; t++ {
			frame := m.Frame(t)
			for idx, in := range mask.Inside {
				if !in {
					frame[idx] = Missing
				}
			}
		}
		out.Vars[name] = m
	}
	return out, nil
}
