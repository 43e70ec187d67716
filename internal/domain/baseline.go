package domain

// BaselineSpec describes a static climatological field: a linear gradient along
// normalized latitude (0 at LatMin, 1 at LatMax) plus smoothed Gaussian noise.
type BaselineSpec struct {
	Base        float64 // value at the southern edge
	Gradient    float64 // added across the full latitude span
	NoiseSigma  float64
	SmoothSigma float64 // in grid cells
}

// Baseline builds the 2-D baseline field for m. latMin and latMax are the
// bounding box edges used to normalize latitude. The result is clipped to valid.
func Baseline(m Mesh, latMin, latMax float64, spec BaselineSpec, valid Range, seed uint64) Field {
	f := NewField(m.H, m.W)
	noise := gaussianNoise(seed, len(f.Data), spec.NoiseSigma)
	span := latMax - latMin
	for idx, lat := range m.Lat {
		norm := (lat - latMin) / span
		f.Data[idx] = spec.Base + spec.Gradient*norm + noise[idx]
	}
	f = Smooth(f, spec.SmoothSigma)
	for idx, v := range f.Data {
		f.Data[idx] = valid.Clip(v)
	}
	return f
}
