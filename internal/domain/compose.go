package domain

// Replicate copies a 2-D baseline into every time step of a new n-day grid.
func Replicate(f Field, n int) *Grid {
	g := NewGrid(n, f.H, f.W)
	for t := 0; t < n; t++ {
		frame := g.Frame(t)
		for idx, v := range f.Data {
			frame[idx] = float32(v)
		}
	}
	return g
}

// DailyNoise draws an independent smoothed noise frame per day, seeded with
// seed+d. It is the time-varying part of variables without a moving system.
func DailyNoise(m Mesh, n int, sigma, smooth float64, seed uint64) *Grid {
	g := NewGrid(n, m.H, m.W)
	if sigma == 0 {
		return g
	}
	for d := 0; d < n; d++ {
		f := Field{H: m.H, W: m.W, Data: gaussianNoise(seed+uint64(d), m.H*m.W, sigma)}
		f = Smooth(f, smooth)
		frame := g.Frame(d)
		for idx, v := range f.Data {
			frame[idx] = float32(v)
		}
	}
	return g
}

// Composite sums base with every non-nil layer cell by cell and clips the total
// to valid. All grids must share one shape. Inputs are not modified.
func Composite(base *Grid, valid Range, layers ...*Grid) (*Grid, error) {
	out := base.Clone()
	for _, l := range layers {
		if l == nil {
			continue
		}
		if l.Shape() != base.Shape() {
			return nil, ErrAxisMismatch
		}
		for idx, v := range l.Data {
			out.Data[idx] += v
		}
	}
	for idx, v := range out.Data {
		out.Data[idx] = float32(valid.Clip(float64(v)))
	}
	return out, nil
}
