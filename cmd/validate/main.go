// Command validate performs integrity checks on a dashboard artifact written by
// the etl service: payload schema, axes, cube shapes, value ranges, null
// handling and obs/forecast parity, plus the optional boundary file.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -artifact dashboard/public/data/meteorological_data.json.gz \
//	  -boundary dashboard/public/data/australia_boundary.json
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/couchcryptid/synthetic-met-data/internal/export"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// rangeSlack absorbs float32 rounding at the valid-range edges.
const rangeSlack = 1e-3

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	artifact := flag.String("artifact", "", "path to meteorological_data.json.gz")
	boundary := flag.String("boundary", "", "optional path to the region boundary GeoJSON")
	flag.Parse()

	if *artifact == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*artifact, *boundary); code != 0 {
		os.Exit(code)
	}
}

func run(artifactPath, boundaryPath string) int {
	fmt.Println("=== Dashboard Artifact Validation ===")
	fmt.Println()

	p, err := export.ReadFile(artifactPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load artifact: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(p),
		validateAxes(p),
		validateShapes(p),
		validateRanges(p),
		validateNulls(p),
		validateParity(p),
	}
	if boundaryPath != "" {
		phases = append(phases, validateBoundary(boundaryPath, p))
	}

	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", ph.name, status)
	}

	fmt.Println()
	fmt.Printf("Grid: %d days x %d lat x %d lon, %d obs variables, %d forecast variables\n",
		len(p.Metadata.Times), len(p.Metadata.Lat), len(p.Metadata.Lon), len(p.Obs), len(p.Forecast))
	printBias(p)

	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateSchema(p *export.Payload) *phase {
	ph := &phase{name: "Schema (metadata, descriptors)"}
	md := p.Metadata
	if len(md.Lat) == 0 || len(md.Lon) == 0 || len(md.Times) == 0 {
		ph.errorf("empty axis: lat=%d lon=%d times=%d", len(md.Lat), len(md.Lon), len(md.Times))
	}
	if len(p.Obs) == 0 {
		ph.errorf("no observation variables")
	}
	for _, name := range sortedNames(p.Obs) {
		d, ok := md.Variables[name]
		if !ok {
			ph.errorf("%s: no descriptor in metadata.variables", name)
			continue
		}
		if d.Name == "" || d.Unit == "" {
			ph.errorf("%s: descriptor missing name or unit", name)
		}
		if d.Min >= d.Max {
			ph.errorf("%s: descriptor min %g >= max %g", name, d.Min, d.Max)
		}
	}
	return ph
}

func validateAxes(p *export.Payload) *phase {
	ph := &phase{name: "Axes (monotonic, contiguous days)"}
	for _, ax := range []struct {
		name string
		vals []float64
	}{{"lat", p.Metadata.Lat}, {"lon", p.Metadata.Lon}} {
		for i := 1; i < len(ax.vals); i++ {
			if !(ax.vals[i] > ax.vals[i-1]) {
				ph.errorf("%s[%d]=%g not greater than %s[%d]=%g", ax.name, i, ax.vals[i], ax.name, i-1, ax.vals[i-1])
				break
			}
		}
	}
	var prev time.Time
	for i, s := range p.Metadata.Times {
		t, err := time.Parse(domain.DateLayout, s)
		if err != nil {
			ph.errorf("times[%d]=%q: %v", i, s, err)
			return ph
		}
		if i > 0 && !t.Equal(prev.AddDate(0, 0, 1)) {
			ph.errorf("times[%d]=%s does not follow %s", i, s, prev.Format(domain.DateLayout))
		}
		prev = t
	}
	return ph
}

func validateShapes(p *export.Payload) *phase {
	ph := &phase{name: "Shapes (time x lat x lon)"}
	want := [3]int{len(p.Metadata.Times), len(p.Metadata.Lat), len(p.Metadata.Lon)}
	check := func(kind string, cubes map[string]export.Cube) {
		for _, name := range sortedNames(cubes) {
			c := cubes[name]
			if got := [3]int{c.T, c.H, c.W}; got != want {
				ph.errorf("%s.%s: shape %v, axes give %v", kind, name, got, want)
			}
			if len(c.Data) != c.T*c.H*c.W {
				ph.errorf("%s.%s: %d values for shape %v", kind, name, len(c.Data), [3]int{c.T, c.H, c.W})
			}
		}
	}
	check("obs", p.Obs)
	check("forecast", p.Forecast)
	return ph
}

func validateRanges(p *export.Payload) *phase {
	ph := &phase{name: "Ranges (within descriptor bounds)"}
	check := func(kind string, cubes map[string]export.Cube) {
		for _, name := range sortedNames(cubes) {
			d, ok := p.Metadata.Variables[name]
			if !ok {
				continue
			}
			vals := cubes[name].Grid().Present()
			if len(vals) == 0 {
				continue
			}
			lo, hi := floats.Min(vals), floats.Max(vals)
			if lo < d.Min-rangeSlack || hi > d.Max+rangeSlack {
				ph.errorf("%s.%s: values span [%g, %g], descriptor allows [%g, %g]", kind, name, lo, hi, d.Min, d.Max)
			}
		}
	}
	check("obs", p.Obs)
	check("forecast", p.Forecast)
	return ph
}

// validateNulls checks that every variable has some data and that missing
// cells (the region mask) sit in the same places in every cube.
func validateNulls(p *export.Payload) *phase {
	ph := &phase{name: "Null handling (shared mask)"}
	var ref []bool
	var refName string
	check := func(kind string, cubes map[string]export.Cube) {
		for _, name := range sortedNames(cubes) {
			c := cubes[name]
			missing := make([]bool, len(c.Data))
			n := 0
			for i, v := range c.Data {
				if domain.IsMissing(v) {
					missing[i] = true
					n++
				}
			}
			if n == len(c.Data) {
				ph.errorf("%s.%s: every value is null", kind, name)
				continue
			}
			if ref == nil {
				ref, refName = missing, kind+"."+name
				continue
			}
			if !slices.Equal(ref, missing) {
				ph.errorf("%s.%s: null cells differ from %s", kind, name, refName)
			}
		}
	}
	check("obs", p.Obs)
	check("forecast", p.Forecast)
	return ph
}

func validateParity(p *export.Payload) *phase {
	ph := &phase{name: "Parity (obs vs forecast variables)"}
	obs, fc := sortedNames(p.Obs), sortedNames(p.Forecast)
	for _, name := range obs {
		if _, ok := p.Forecast[name]; !ok {
			ph.errorf("%s: in obs but not in forecast", name)
		}
	}
	for _, name := range fc {
		if _, ok := p.Obs[name]; !ok {
			ph.errorf("%s: in forecast but not in obs", name)
		}
	}
	return ph
}

func validateBoundary(path string, p *export.Payload) *phase {
	ph := &phase{name: "Boundary (closed ring)"}
	name, ring, err := export.ReadBoundary(path)
	if err != nil {
		ph.errorf("read boundary: %v", err)
		return ph
	}
	if name == "" {
		ph.errorf("boundary has no name property")
	}
	if len(ring) < 4 {
		ph.errorf("ring has %d vertices, need at least 4", len(ring))
		return ph
	}
	if ring[0] != ring[len(ring)-1] {
		ph.errorf("ring is not closed: first %v, last %v", ring[0], ring[len(ring)-1])
	}
	// A ring that never touches the grid extent means the wrong region was exported.
	md := p.Metadata
	if len(md.Lat) > 0 && len(md.Lon) > 0 {
		inside := 0
		for _, v := range ring {
			if v.Lat >= md.Lat[0]-1 && v.Lat <= md.Lat[len(md.Lat)-1]+1 &&
				v.Lon >= md.Lon[0]-1 && v.Lon <= md.Lon[len(md.Lon)-1]+1 {
				inside++
			}
		}
		if inside == 0 {
			ph.errorf("no boundary vertex lies within the grid extent")
		}
	}
	return ph
}

// printBias reports the mean forecast-minus-obs difference per variable.
func printBias(p *export.Payload) {
	names := sortedNames(p.Obs)
	if len(names) == 0 || len(p.Forecast) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("  %-18s %12s %12s %12s\n", "variable", "obs mean", "fc mean", "bias")
	for _, name := range names {
		fc, ok := p.Forecast[name]
		if !ok {
			continue
		}
		o, f := p.Obs[name].Grid().Present(), fc.Grid().Present()
		if len(o) == 0 || len(f) == 0 {
			continue
		}
		om, fm := stat.Mean(o, nil), stat.Mean(f, nil)
		fmt.Printf("  %-18s %12.2f %12.2f %+12.2f\n", name, om, fm, roundBias(fm-om))
	}
}

func roundBias(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedNames(cubes map[string]export.Cube) []string {
	names := make([]string, 0, len(cubes))
	for name := range cubes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
