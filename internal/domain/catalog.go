package domain

import "fmt"

// VariableSpec is one row of the declarative variable table: everything the
// generic baseline, anomaly, bias and export stages need to know about a name.
type VariableSpec struct {
	Name         string
	DisplayName  string
	StandardName string
	Unit         string // display unit used by the dashboard
	CFUnits      string // units attribute written to the grid store
	Valid        Range

	Baseline    BaselineSpec
	DailyNoise  float64 // per-day noise sigma for the time-varying part
	DailySmooth float64

	// Anomaly is nil for variables without a moving system.
	Anomaly *AnomalySpec

	Bias BiasRule
}

// Attrs returns the per-variable attributes stored alongside the grid.
func (v VariableSpec) Attrs() Attrs {
	a := Attrs{
		AttrLongName: v.DisplayName,
		AttrUnits:    v.CFUnits,
		AttrValidMin: v.Valid.Min,
		AttrValidMax: v.Valid.Max,
	}
	if v.StandardName != "" {
		a[AttrStandardName] = v.StandardName
	}
	return a
}

// Catalog is an ordered variable table.
type Catalog []VariableSpec

// Lookup finds a variable by name.
func (c Catalog) Lookup(name string) (VariableSpec, bool) {
	for _, v := range c {
		if v.Name == name {
			return v, true
		}
	}
	return VariableSpec{}, false
}

// Names returns the variable names in table order.
func (c Catalog) Names() []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = v.Name
	}
	return out
}

// Select returns the sub-catalog for names, in the order given.
func (c Catalog) Select(names ...string) (Catalog, error) {
	out := make(Catalog, 0, len(names))
	for _, n := range names {
		v, ok := c.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, n)
		}
		out = append(out, v)
	}
	return out, nil
}

// Heatwave returns a band-shaped thermal system crossing the domain west to east.
func Heatwave(b Bounds, peak float64) *AnomalySpec {
	return &AnomalySpec{
		System:      "heatwave",
		Kernel:      KernelBand,
		Width:       5,
		Peak:        peak,
		NoiseSigma:  0.5,
		SmoothSigma: 2,
		LonStart:    b.LonMin,
		LonEnd:      b.LonMax,
		Envelope:    HeatwaveEnvelope,
	}
}

// Rainfall returns a circular precipitation system crossing the domain west to
// east while drifting slightly south.
func Rainfall(b Bounds, peak float64, floorZero bool) *AnomalySpec {
	span := b.LatMax - b.LatMin
	return &AnomalySpec{
		System:      "rainfall",
		Kernel:      KernelCircular,
		Width:       4,
		Peak:        peak,
		NoiseSigma:  1,
		SmoothSigma: 2,
		FloorZero:   floorZero,
		LonStart:    b.LonMin,
		LonEnd:      b.LonMax,
		LatStart:    b.LatMin + 0.6*span,
		LatEnd:      b.LatMin + 0.4*span,
		Envelope:    RainfallEnvelope,
	}
}

// DefaultCatalog is the full variable table for a domain.
func DefaultCatalog(b Bounds) Catalog {
	return Catalog{
		{
			Name: "tmax", DisplayName: "Maximum Temperature", StandardName: "air_temperature",
			Unit: "°C", CFUnits: "degC", Valid: Range{15, 45},
			Baseline:   BaselineSpec{Base: 20, Gradient: 15, NoiseSigma: 2.5, SmoothSigma: 3},
			DailyNoise: 0.8, DailySmooth: 2,
			Anomaly: Heatwave(b, 8),
			Bias:    BiasRule{Scale: 1, Offset: 1.2, RelNoise: 0.02},
		},
		{
			Name: "tmin", DisplayName: "Minimum Temperature", StandardName: "air_temperature",
			Unit: "°C", CFUnits: "degC", Valid: Range{5, 30},
			Baseline:   BaselineSpec{Base: 8, Gradient: 14, NoiseSigma: 1.5, SmoothSigma: 3},
			DailyNoise: 0.6, DailySmooth: 2,
			Anomaly: Heatwave(b, 5),
			Bias:    BiasRule{Scale: 1, Offset: -0.8, RelNoise: 0.02},
		},
		{
			Name: "precip", DisplayName: "Precipitation", StandardName: "precipitation_amount",
			Unit: "mm", CFUnits: "mm/day", Valid: Range{0, 50},
			Baseline: BaselineSpec{Base: 1, Gradient: 6, NoiseSigma: 1, SmoothSigma: 3},
			Anomaly:  Rainfall(b, 30, true),
			Bias:     BiasRule{Scale: 1.4, RelNoise: 0.1},
		},
		{
			Name: "rh", DisplayName: "Relative Humidity", StandardName: "relative_humidity",
			Unit: "%", CFUnits: "%", Valid: Range{20, 90},
			Baseline:   BaselineSpec{Base: 40, Gradient: 30, NoiseSigma: 5, SmoothSigma: 3},
			DailyNoise: 3, DailySmooth: 2,
			Anomaly: Heatwave(b, -15),
			Bias:    BiasRule{Scale: 0.95, Offset: 2},
		},
		{
			Name: "wind_avg", DisplayName: "Average Wind Speed", StandardName: "wind_speed",
			Unit: "m/s", CFUnits: "m s-1", Valid: Range{0.5, 12},
			Baseline:   BaselineSpec{Base: 6, Gradient: -2, NoiseSigma: 1, SmoothSigma: 2},
			DailyNoise: 0.7, DailySmooth: 2,
			Anomaly: Rainfall(b, 4, false),
			Bias:    BiasRule{Scale: 1.1, RelNoise: 0.05},
		},
		{
			Name: "wind_gust", DisplayName: "Wind Gust", StandardName: "wind_speed_of_gust",
			Unit: "m/s", CFUnits: "m s-1", Valid: Range{1, 25},
			Baseline:   BaselineSpec{Base: 12, Gradient: -3, NoiseSigma: 2, SmoothSigma: 2},
			DailyNoise: 1.2, DailySmooth: 2,
			Anomaly: Rainfall(b, 9, false),
			Bias:    BiasRule{Scale: 1.15, RelNoise: 0.08},
		},
		{
			Name: "pressure_sfc", DisplayName: "Surface Pressure", StandardName: "surface_air_pressure",
			Unit: "hPa", CFUnits: "hPa", Valid: Range{1000, 1025},
			Baseline:   BaselineSpec{Base: 1018, Gradient: -8, NoiseSigma: 1.5, SmoothSigma: 4},
			DailyNoise: 1, DailySmooth: 3,
			Anomaly: Rainfall(b, -8, false),
			Bias:    BiasRule{Scale: 1, Offset: 1.5},
		},
		geopotential(b, "850", Range{1400, 1600}, BaselineSpec{Base: 1540, Gradient: -40, NoiseSigma: 8, SmoothSigma: 4}, 40, 8),
		geopotential(b, "700", Range{2900, 3100}, BaselineSpec{Base: 3050, Gradient: -60, NoiseSigma: 10, SmoothSigma: 4}, 50, 10),
		geopotential(b, "500", Range{5400, 5700}, BaselineSpec{Base: 5520, Gradient: 120, NoiseSigma: 15, SmoothSigma: 4}, 80, 15),
		geopotential(b, "250", Range{10300, 10700}, BaselineSpec{Base: 10420, Gradient: 180, NoiseSigma: 20, SmoothSigma: 4}, 120, 20),
	}
}

// geopotential builds a pressure-level height variable lifted by the heatwave ridge.
func geopotential(b Bounds, level string, valid Range, base BaselineSpec, ridge, offset float64) VariableSpec {
	return VariableSpec{
		Name:         "geopotential_" + level,
		DisplayName:  "Geopotential " + level + "hPa",
		StandardName: "geopotential_height",
		Unit:         "m",
		CFUnits:      "m",
		Valid:        valid,
		Baseline:     base,
		DailyNoise:   base.NoiseSigma / 2,
		DailySmooth:  3,
		Anomaly:      Heatwave(b, ridge),
		Bias:         BiasRule{Scale: 1, Offset: offset},
	}
}
