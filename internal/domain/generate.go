package domain

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// kmPerDegree converts the grid step to the nominal resolution_km attribute.
const kmPerDegree = 111.0

// GenerateOptions configures one synthetic observation run.
type GenerateOptions struct {
	Region     string
	Bounds     Bounds
	Resolution float64
	Start      time.Time
	Days       int
	Seed       uint64
	Catalog    Catalog
	Workers    int // <= 0 uses GOMAXPROCS
}

// Generate builds the observation dataset: for every catalog variable the
// baseline is replicated across days, the variable's moving system and daily
// noise are added, and the sum is clipped to the valid range. Variables are
// built concurrently; per-variable seeding keeps the result independent of
// scheduling.
func Generate(ctx context.Context, opts GenerateOptions) (*Dataset, error) {
	if opts.Days < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDays, opts.Days)
	}
	axes, err := BuildAxes(opts.Bounds, opts.Resolution)
	if err != nil {
		return nil, err
	}
	mesh := Meshgrid(axes)

	ds := NewDataset(axes, DailyTimes(opts.Start, opts.Days))
	ds.Attrs = GlobalAttrs(opts.Region, opts.Resolution)

	grids := make([]*Grid, len(opts.Catalog))
	g, ctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for i, spec := range opts.Catalog {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			grid, err := BuildVariable(mesh, opts.Bounds, opts.Days, spec, opts.Seed)
			if err != nil {
				return fmt.Errorf("build %s: %w", spec.Name, err)
			}
			grids[i] = grid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, spec := range opts.Catalog {
		ds.Vars[spec.Name] = grids[i]
		ds.VarAttrs[spec.Name] = spec.Attrs()
	}
	return ds, nil
}

// BuildVariable composes one variable's (time, lat, lon) grid.
func BuildVariable(m Mesh, b Bounds, days int, spec VariableSpec, seed uint64) (*Grid, error) {
	base := Baseline(m, b.LatMin, b.LatMax, spec.Baseline, spec.Valid, DeriveSeed(seed, spec.Name, PurposeBaseline))

	var moving *Grid
	if spec.Anomaly != nil {
		var err error
		moving, err = Anomaly(m, days, *spec.Anomaly, DeriveSeed(seed, spec.Name, PurposeAnomaly))
		if err != nil {
			return nil, err
		}
	}
	var daily *Grid
	if spec.DailyNoise > 0 {
		daily = DailyNoise(m, days, spec.DailyNoise, spec.DailySmooth, DeriveSeed(seed, spec.Name, PurposeDaily))
	}
	return Composite(Replicate(base, days), spec.Valid, moving, daily)
}

// GlobalAttrs returns the dataset-level attributes for an observation run.
func GlobalAttrs(region string, resolution float64) Attrs {
	return Attrs{
		"title":         fmt.Sprintf("Mock %s Meteorological Data", region),
		"institution":   "Dashboard Project",
		"source":        "Synthetic data for testing",
		"Conventions":   "CF-1.8",
		"crs":           "EPSG:4326",
		"resolution_km": int(math.Round(resolution * kmPerDegree)),
		"created":       clock.Now().UTC().Format(time.RFC3339),
	}
}

// AxisAttrs returns the CF attributes for the lat, lon and time coordinates.
func AxisAttrs() map[string]Attrs {
	return map[string]Attrs{
		"lat": {
			AttrLongName: "latitude", AttrStandardName: "latitude",
			AttrUnits: "degrees_north", AttrAxis: "Y",
		},
		"lon": {
			AttrLongName: "longitude", AttrStandardName: "longitude",
			AttrUnits: "degrees_east", AttrAxis: "X",
		},
		"time": {
			AttrLongName: "time", AttrStandardName: "time",
			AttrUnits: "days since 1970-01-01", AttrAxis: "T",
		},
	}
}
