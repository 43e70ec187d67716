// Package export turns downsampled datasets into the dashboard artifacts: a
// gzip-compressed JSON payload and a GeoJSON boundary feature.
package export

import (
	"fmt"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
)

// VariableDescriptor is the dashboard's per-variable legend entry.
type VariableDescriptor struct {
	Name string  `json:"name"`
	Unit string  `json:"unit"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Metadata carries the shared axes and the variable legend.
type Metadata struct {
	Lat       []float64                     `json:"lat"`
	Lon       []float64                     `json:"lon"`
	Times     []string                      `json:"times"`
	Variables map[string]VariableDescriptor `json:"variables"`
}

// Payload is the top-level dashboard document. A variable absent from Obs or
// Forecast means "no such variable", never zero.
type Payload struct {
	Metadata Metadata        `json:"metadata"`
	Obs      map[string]Cube `json:"obs"`
	Forecast map[string]Cube `json:"forecast"`
}

// Build assembles the payload from aligned observation and forecast datasets.
// Grids are referenced, not copied.
func Build(obs, fc *domain.Dataset, cat domain.Catalog) (*Payload, error) {
	if err := domain.CheckAligned(obs, fc); err != nil {
		return nil, err
	}
	for _, ds := range []*domain.Dataset{obs, fc} {
		if err := ds.Validate(); err != nil {
			return nil, err
		}
	}

	p := &Payload{
		Metadata: Metadata{
			Lat:       obs.Axes.Lat,
			Lon:       obs.Axes.Lon,
			Times:     obs.FormatTimes(),
			Variables: make(map[string]VariableDescriptor),
		},
		Obs:      make(map[string]Cube, len(obs.Vars)),
		Forecast: make(map[string]Cube, len(fc.Vars)),
	}
	for _, part := range []struct {
		ds  *domain.Dataset
		out map[string]Cube
	}{{obs, p.Obs}, {fc, p.Forecast}} {
		for name, g := range part.ds.Vars {
			spec, ok := cat.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", domain.ErrUnknownVariable, name)
			}
			p.Metadata.Variables[name] = VariableDescriptor{
				Name: spec.DisplayName,
				Unit: spec.Unit,
				Min:  spec.Valid.Min,
				Max:  spec.Valid.Max,
			}
			part.out[name] = CubeFromGrid(g)
		}
	}
	return p, nil
}
