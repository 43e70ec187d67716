// Command genmock generates the synthetic observation and forecast datasets
// and writes them to NetCDF stores that the etl service can load with
// LOAD_FROM_STORE=true.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -data-dir data \
//	  -region Australia \
//	  -region-source testdata/countries.geojson \
//	  -days 10 -seed 42
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/couchcryptid/synthetic-met-data/internal/adapter/gridstore"
	"github.com/couchcryptid/synthetic-met-data/internal/adapter/region"
	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "data", "directory for the NetCDF stores")
	regionName := flag.String("region", "Australia", "region name used for file names and masking")
	regionSource := flag.String("region-source", "", "GeoJSON path or URL for the region polygon (empty leaves the grid unmasked)")
	latMin := flag.Float64("lat-min", -44, "southern edge in degrees")
	latMax := flag.Float64("lat-max", -10, "northern edge in degrees")
	lonMin := flag.Float64("lon-min", 113, "western edge in degrees")
	lonMax := flag.Float64("lon-max", 154, "eastern edge in degrees")
	resolution := flag.Float64("resolution", 0.09, "grid step in degrees")
	start := flag.String("start", "2024-01-15", "first day (YYYY-MM-DD)")
	days := flag.Int("days", 10, "number of days")
	seed := flag.Uint64("seed", 42, "base random seed")
	variables := flag.String("variables", "", "comma-separated subset of variables (default all)")
	flag.Parse()

	startDate, err := time.Parse(domain.DateLayout, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	bounds := domain.Bounds{LatMin: *latMin, LatMax: *latMax, LonMin: *lonMin, LonMax: *lonMax}

	catalog := domain.DefaultCatalog(bounds)
	if *variables != "" {
		if catalog, err = catalog.Select(splitList(*variables)...); err != nil {
			return err
		}
	}

	// Stamp the created attribute with the start date so reruns produce
	// byte-comparable stores.
	domain.SetClock(clockwork.NewFakeClockAt(startDate))
	defer domain.SetClock(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	began := time.Now()
	obs, err := domain.Generate(ctx, domain.GenerateOptions{
		Region:     *regionName,
		Bounds:     bounds,
		Resolution: *resolution,
		Start:      startDate,
		Days:       *days,
		Seed:       *seed,
		Catalog:    catalog,
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	shape := obs.Shape()
	log.Printf("generated %d variables, shape %v in %s", len(obs.Vars), shape, time.Since(began).Round(time.Millisecond))

	if *regionSource != "" {
		src := region.NewSource(*regionSource, *regionName, 30*time.Second, slog.Default())
		mask, err := src.Mask(ctx, obs.Axes)
		if err != nil {
			log.Printf("warning: region mask unavailable, writing unmasked data: %v", err)
		} else {
			if obs, err = domain.ApplyMask(obs, mask); err != nil {
				return err
			}
			log.Printf("masked to %s: %d of %d cells inside", *regionName, mask.Count(), len(mask.Inside))
		}
	}

	fc, err := domain.ApplyForecastBias(obs, catalog, *seed)
	if err != nil {
		return fmt.Errorf("forecast bias: %w", err)
	}

	for _, name := range obs.Names() {
		s := domain.Summarize(obs.Vars[name])
		log.Printf("%-18s min=%9.2f max=%9.2f mean=%9.2f missing=%d", name, s.Min, s.Max, s.Mean, s.Missing)
	}

	store := gridstore.NewStore(*dataDir, slog.Default())
	slug := domain.RegionSlug(*regionName)
	for kind, ds := range map[string]*domain.Dataset{"obs": obs, "forecast": fc} {
		path, err := store.Write(slug+"_"+kind, ds)
		if err != nil {
			return err
		}
		log.Printf("%s: wrote %s", kind, path)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
