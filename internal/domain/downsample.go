package domain

import "fmt"

// Downsample block-averages g by k in both spatial dimensions. Cells that do not
// fill a complete block are dropped. Within a block, missing cells are skipped
// and the mean is taken over present values; a fully missing block is missing.
func Downsample(g *Grid, k int) (*Grid, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, k)
	}
	h, w := g.H/k, g.W/k
	out := NewGrid(g.T, h, w)
	for t := 0; t < g.T; t++ {
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				var sum float64
				var n int
				for bi := i * k; bi < (i+1)*k; bi++ {
					for bj := j * k; bj < (j+1)*k; bj++ {
						v := g.At(t, bi, bj)
						if IsMissing(v) {
							continue
						}
						sum += float64(v)
						n++
					}
				}
				if n == 0 {
					out.Set(t, i, j, Missing)
					continue
				}
				out.Set(t, i, j, float32(sum/float64(n)))
			}
		}
	}
	return out, nil
}

// DownsampleAxis replaces each complete block of k coordinates by its mean.
func DownsampleAxis(a []float64, k int) []float64 {
	out := make([]float64, len(a)/k)
	for i := range out {
		var sum float64
		for _, v := range a[i*k : (i+1)*k] {
			sum += v
		}
		out[i] = sum / float64(k)
	}
	return out
}

// DownsampleDataset downsamples every variable and both axes by k. The input is
// not modified.
func DownsampleDataset(ds *Dataset, k int) (*Dataset, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, k)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	out := ds.Derive()
	out.Axes = Axes{Lat: DownsampleAxis(ds.Axes.Lat, k), Lon: DownsampleAxis(ds.Axes.Lon, k)}
	for name, g := range ds.Vars {
		d, err := Downsample(g, k)
		if err != nil {
			return nil, err
		}
		out.Vars[name] = d
	}
	if k > 1 {
		if res, ok := out.Attrs["resolution_km"].(int); ok {
			out.Attrs["resolution_km"] = res * k
		}
	}
	return out, nil
}
