package domain

import "fmt"

// BiasRule is a per-variable forecast error model:
// forecast = clip((obs*Scale + Offset) * (1 + N(0, RelNoise))).
type BiasRule struct {
	Scale    float64
	Offset   float64
	RelNoise float64
}

// IdentityBias leaves values unchanged.
var IdentityBias = BiasRule{Scale: 1}

// Apply returns a new biased grid. Missing cells stay missing. Noise for day t
// is drawn from seed+t.
func (r BiasRule) Apply(g *Grid, valid Range, seed uint64) *Grid {
	out := NewGrid(g.T, g.H, g.W)
	n := g.H * g.W
	for t := 0; t < g.T; t++ {
		noise := gaussianNoise(seed+uint64(t), n, r.RelNoise)
		src, dst := g.Frame(t), out.Frame(t)
		for idx, v := range src {
			if IsMissing(v) {
				dst[idx] = Missing
				continue
			}
			b := (float64(v)*r.Scale + r.Offset) * (1 + noise[idx])
			dst[idx] = float32(valid.Clip(b))
		}
	}
	return out
}

// ApplyForecastBias derives a forecast dataset from obs using each variable's
// catalog bias rule. obs is not modified. Variables missing from the catalog are
// rejected with ErrUnknownVariable.
func ApplyForecastBias(obs *Dataset, cat Catalog, seed uint64) (*Dataset, error) {
	out := obs.Derive()
	out.Attrs["title"] = fmt.Sprintf("%v (forecast)", obs.Attrs["title"])
	out.Attrs["source"] = "Synthetic forecast derived from synthetic observations"
	for _, name := range obs.Names() {
		spec, ok := cat.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
		}
		out.Vars[name] = spec.Bias.Apply(obs.Vars[name], spec.Valid, DeriveSeed(seed, name, PurposeBias))
	}
	return out, nil
}
