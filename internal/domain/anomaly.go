package domain

import "math"

// Kernel selects how an anomaly decays away from its moving center.
type Kernel int

const (
	// KernelBand decays with 1-D longitude distance from the center meridian.
	KernelBand Kernel = iota
	// KernelCircular decays with 2-D lat/lon distance from the center point.
	KernelCircular
)

func (k Kernel) String() string {
	switch k {
	case KernelBand:
		return "band"
	case KernelCircular:
		return "circular"
	default:
		return "unknown"
	}
}

// Envelope is a piecewise-linear day-index to intensity mapping: a ramp from 0
// over days [0, PlateauStart), 1 over [PlateauStart, DecayStart), and a ramp
// back to 0 from DecayStart to the last day. The ramp denominators are separate
// fields so each system can choose its own off-by-one convention.
type Envelope struct {
	PlateauStart int
	DecayStart   int
	UpDenom      float64
	DownDenom    float64
}

// EnvelopeFunc builds the envelope for a run of n days.
type EnvelopeFunc func(n int) Envelope

// Factor returns the temporal intensity in [0, 1] for day d of n.
func (e Envelope) Factor(d, n int) float64 {
	switch {
	case d < e.PlateauStart:
		if e.UpDenom <= 0 {
			return 0
		}
		return clamp01(float64(d) / e.UpDenom)
	case d < e.DecayStart:
		return 1
	default:
		if e.DownDenom <= 0 {
			return 0
		}
		return clamp01(float64(n-1-d) / e.DownDenom)
	}
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

// ConstantEnvelope holds full intensity on every day.
func ConstantEnvelope(int) Envelope {
	return Envelope{PlateauStart: 0, DecayStart: math.MaxInt, UpDenom: 1, DownDenom: 1}
}

// windows splits n days into build-up, plateau and decay at 30% and 70%.
// For a 10-day run this gives build-up 0-2, plateau 3-6 and decay 7-9.
func windows(n int) (plateauStart, decayStart int) {
	return int(math.Round(0.3 * float64(n))), int(math.Round(0.7 * float64(n)))
}

// HeatwaveEnvelope ramps over the full build-up and decay windows, so day 2 of a
// 10-day run is at 2/3 and the peak is first reached on day 3.
func HeatwaveEnvelope(n int) Envelope {
	p, d := windows(n)
	return Envelope{PlateauStart: p, DecayStart: d, UpDenom: float64(p), DownDenom: float64(n - d)}
}

// RainfallEnvelope uses one-day-shorter ramp denominators than the heatwave, so
// the system reaches full intensity on the last build-up day and holds it on the
// first decay day. Short runs keep a ramp of at least one day, so day 0 still
// starts from zero.
func RainfallEnvelope(n int) Envelope {
	p, d := windows(n)
	return Envelope{PlateauStart: p, DecayStart: d, UpDenom: float64(max(p-1, 1)), DownDenom: float64(max(n-d-1, 1))}
}

// AnomalySpec configures one moving anomaly system for one variable.
type AnomalySpec struct {
	System      string
	Kernel      Kernel
	Width       float64 // degrees: band half-width or circular radius
	Peak        float64
	NoiseSigma  float64
	SmoothSigma float64 // in grid cells
	FloorZero   bool    // clip the result at zero (non-negative quantities)

	// Track of the center. Longitude always travels LonStart -> LonEnd; the
	// center latitude is only used by circular kernels.
	LonStart, LonEnd float64
	LatStart, LatEnd float64

	Envelope EnvelopeFunc
}

// Progress returns d/(n-1), or 0 for the single-frame case.
func Progress(d, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(d) / float64(n-1)
}

// Center returns the system center for a progress value in [0, 1].
func (s AnomalySpec) Center(progress float64) (lon, lat float64) {
	lon = s.LonStart + (s.LonEnd-s.LonStart)*progress
	lat = s.LatStart + (s.LatEnd-s.LatStart)*progress
	return lon, lat
}

func (s AnomalySpec) envelope(n int) Envelope {
	if s.Envelope == nil {
		return ConstantEnvelope(n)
	}
	return s.Envelope(n)
}

// spatialFactor is exp(-dist^2 / (2*width^2)).
func (s AnomalySpec) spatialFactor(lat, lon, cLon, cLat float64) float64 {
	dLon := lon - cLon
	dist2 := dLon * dLon
	if s.Kernel == KernelCircular {
		dLat := lat - cLat
		dist2 += dLat * dLat
	}
	return math.Exp(-dist2 / (2 * s.Width * s.Width))
}

// AnomalyFrame computes the 2-D anomaly for day d of n. Noise for the day is
// drawn from seed+d so every frame is reproducible on its own.
func AnomalyFrame(m Mesh, d, n int, spec AnomalySpec, seed uint64) Field {
	f := NewField(m.H, m.W)
	tf := spec.envelope(n).Factor(d, n)
	cLon, cLat := spec.Center(Progress(d, n))
	noise := gaussianNoise(seed+uint64(d), len(f.Data), spec.NoiseSigma)
	for idx := range f.Data {
		sf := spec.spatialFactor(m.Lat[idx], m.Lon[idx], cLon, cLat)
		f.Data[idx] = spec.Peak*tf*sf + noise[idx]
	}
	f = Smooth(f, spec.SmoothSigma)
	if spec.FloorZero {
		for idx, v := range f.Data {
			f.Data[idx] = math.Max(0, v)
		}
	}
	return f
}

// Anomaly computes the full (time, lat, lon) anomaly array over n days.
func Anomaly(m Mesh, n int, spec AnomalySpec, seed uint64) (*Grid, error) {
	if n < 1 {
		return nil, ErrInvalidDays
	}
	g := NewGrid(n, m.H, m.W)
	for d := 0; d < n; d++ {
		f := AnomalyFrame(m, d, n, spec, seed)
		frame := g.Frame(d)
		for idx, v := range f.Data {
			frame[idx] = float32(v)
		}
	}
	return g, nil
}
