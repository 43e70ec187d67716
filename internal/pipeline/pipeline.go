package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/synthetic-met-data/internal/config"
	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/couchcryptid/synthetic-met-data/internal/export"
	"github.com/couchcryptid/synthetic-met-data/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DatasetStore persists observation and forecast datasets between runs.
type DatasetStore interface {
	Write(name string, ds *domain.Dataset) (string, error)
	Read(name string) (*domain.Dataset, error)
}

// Notifier announces a freshly written artifact.
type Notifier interface {
	Publish(ctx context.Context, m domain.Manifest) error
}

// Options controls a single pipeline run.
type Options struct {
	Generate          domain.GenerateOptions
	DownsampleFactor  int
	OutputDir         string
	WriteUncompressed bool
	LoadFromStore     bool
	PublishAttempts   int
}

// NewOptions maps the service configuration onto run options.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Generate: domain.GenerateOptions{
			Region:     cfg.RegionName,
			Bounds:     cfg.Bounds,
			Resolution: cfg.Resolution,
			Start:      cfg.StartDate,
			Days:       cfg.Days,
			Seed:       cfg.Seed,
			Catalog:    domain.DefaultCatalog(cfg.Bounds),
			Workers:    cfg.Workers,
		},
		DownsampleFactor:  cfg.DownsampleFactor,
		OutputDir:         cfg.OutputDir,
		WriteUncompressed: cfg.WriteUncompressed,
		LoadFromStore:     cfg.LoadFromStore,
		PublishAttempts:   3,
	}
}

// Validate rejects options that would fail part-way through a run, so a bad
// configuration never leaves stores or artifacts behind.
func (o Options) Validate() error {
	g := o.Generate
	if err := g.Bounds.Validate(); err != nil {
		return err
	}
	if !(g.Resolution > 0) {
		return fmt.Errorf("%w: %g", domain.ErrInvalidResolution, g.Resolution)
	}
	if g.Days < 1 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidDays, g.Days)
	}
	if o.DownsampleFactor < 1 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidFactor, o.DownsampleFactor)
	}
	if o.OutputDir == "" {
		return errors.New("output directory is required")
	}
	return nil
}

// Pipeline orchestrates generate, mask, bias, store, downsample and export.
type Pipeline struct {
	opts     Options
	region   domain.RegionSource
	store    DatasetStore
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu   sync.RWMutex
	last *domain.Manifest
}

// New creates a Pipeline. region and notifier may be nil: without a region the
// output is unmasked, without a notifier nothing is published.
func New(opts Options, region domain.RegionSource, store DatasetStore, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		opts:     opts,
		region:   region,
		store:    store,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once an artifact has been written.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no artifact has been produced yet")
	}
	return nil
}

// LastManifest returns the manifest of the most recent successful run.
func (p *Pipeline) LastManifest() (domain.Manifest, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return domain.Manifest{}, false
	}
	return *p.last, true
}

// Run executes one full pass and returns the manifest of the written artifact.
// Configuration errors abort before anything is written. A missing region
// degrades to unmasked output and a failed notification is only logged.
func (p *Pipeline) Run(ctx context.Context) (domain.Manifest, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	m, err := p.run(ctx)
	if err != nil {
		p.metrics.Runs.WithLabelValues("error").Inc()
		return domain.Manifest{}, err
	}
	p.metrics.Runs.WithLabelValues("success").Inc()

	p.mu.Lock()
	p.last = &m
	p.mu.Unlock()
	p.ready.Store(true)
	return m, nil
}

// Loop runs the pipeline immediately and then on every interval tick until ctx
// is canceled. A non-positive interval runs once. Failed runs are logged and
// the next tick tries again.
func (p *Pipeline) Loop(ctx context.Context, clock clockwork.Clock, interval time.Duration) {
	p.runLogged(ctx)
	if interval <= 0 {
		return
	}
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.runLogged(ctx)
		}
	}
}

func (p *Pipeline) runLogged(ctx context.Context) {
	if _, err := p.Run(ctx); err != nil && ctx.Err() == nil {
		p.logger.Error("pipeline error", "error", err)
	}
}

func (p *Pipeline) run(ctx context.Context) (domain.Manifest, error) {
	if err := p.opts.Validate(); err != nil {
		return domain.Manifest{}, err
	}
	start := time.Now()
	region := p.opts.Generate.Region
	p.logger.Info("pipeline started",
		"region", region,
		"days", p.opts.Generate.Days,
		"resolution", p.opts.Generate.Resolution,
		"factor", p.opts.DownsampleFactor,
		"load_from_store", p.opts.LoadFromStore,
	)

	obs, fc, masked, err := p.datasets(ctx)
	if err != nil {
		return domain.Manifest{}, err
	}
	p.logSummaries("obs", obs)
	p.logSummaries("forecast", fc)

	var obsDown, fcDown *domain.Dataset
	err = p.stage("downsample", func() error {
		var err error
		if obsDown, err = domain.DownsampleDataset(obs, p.opts.DownsampleFactor); err != nil {
			return fmt.Errorf("downsample obs: %w", err)
		}
		if fcDown, err = domain.DownsampleDataset(fc, p.opts.DownsampleFactor); err != nil {
			return fmt.Errorf("downsample forecast: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Manifest{}, err
	}
	p.logger.Info("datasets downsampled", "factor", p.opts.DownsampleFactor, "from", obs.Shape(), "to", obsDown.Shape())

	var sizes export.Sizes
	err = p.stage("export", func() error {
		payload, err := export.Build(obsDown, fcDown, p.opts.Generate.Catalog)
		if err != nil {
			return err
		}
		sizes, err = export.WriteFiles(p.opts.OutputDir, payload, p.opts.WriteUncompressed)
		return err
	})
	if err != nil {
		return domain.Manifest{}, err
	}
	p.metrics.ArtifactBytes.WithLabelValues("raw").Set(float64(sizes.Raw))
	p.metrics.ArtifactBytes.WithLabelValues("compressed").Set(float64(sizes.Compressed))
	p.logger.Info("artifact written",
		"path", sizes.Path,
		"raw_bytes", sizes.Raw,
		"compressed_bytes", sizes.Compressed,
		"reduction_pct", fmt.Sprintf("%.1f", sizes.ReductionPct),
	)

	boundaryPath := p.writeBoundary(ctx, masked)

	m := domain.Manifest{
		RunID:        runID(sizes.SHA256),
		Region:       region,
		Times:        obsDown.FormatTimes(),
		Variables:    obsDown.Names(),
		Shape:        obsDown.Shape(),
		Path:         sizes.Path,
		Bytes:        sizes.Compressed,
		SHA256:       sizes.SHA256,
		Masked:       masked,
		BoundaryPath: boundaryPath,
		CreatedAt:    domain.Now(),
	}
	p.publish(ctx, m)

	p.logger.Info("pipeline finished", "run_id", m.RunID, "duration", time.Since(start).Round(time.Millisecond))
	return m, nil
}

// datasets produces masked observation and forecast datasets, either freshly
// generated (and then persisted) or read back from the store.
func (p *Pipeline) datasets(ctx context.Context) (obs, fc *domain.Dataset, masked bool, err error) {
	if p.opts.LoadFromStore {
		err = p.stage("load", func() error {
			var err error
			if obs, err = p.store.Read(p.storeName("obs")); err != nil {
				return err
			}
			if fc, err = p.store.Read(p.storeName("forecast")); err != nil {
				return err
			}
			return domain.CheckAligned(obs, fc)
		})
		if err != nil {
			return nil, nil, false, fmt.Errorf("load stores: %w", err)
		}
		mask, ok := p.mask(ctx, obs.Axes)
		if !ok {
			return obs, fc, false, nil
		}
		if obs, err = domain.ApplyMask(obs, mask); err != nil {
			return nil, nil, false, err
		}
		if fc, err = domain.ApplyMask(fc, mask); err != nil {
			return nil, nil, false, err
		}
		return obs, fc, true, nil
	}

	err = p.stage("generate", func() error {
		var err error
		obs, err = domain.Generate(ctx, p.opts.Generate)
		return err
	})
	if err != nil {
		return nil, nil, false, fmt.Errorf("generate: %w", err)
	}
	p.logger.Info("observations generated", "variables", len(obs.Vars), "shape", obs.Shape())

	if mask, ok := p.mask(ctx, obs.Axes); ok {
		if obs, err = domain.ApplyMask(obs, mask); err != nil {
			return nil, nil, false, err
		}
		masked = true
	}

	err = p.stage("bias", func() error {
		var err error
		fc, err = domain.ApplyForecastBias(obs, p.opts.Generate.Catalog, p.opts.Generate.Seed)
		return err
	})
	if err != nil {
		return nil, nil, false, fmt.Errorf("forecast bias: %w", err)
	}

	err = p.stage("store", func() error {
		if _, err := p.store.Write(p.storeName("obs"), obs); err != nil {
			return err
		}
		_, err := p.store.Write(p.storeName("forecast"), fc)
		return err
	})
	if err != nil {
		return nil, nil, false, fmt.Errorf("store datasets: %w", err)
	}
	return obs, fc, masked, nil
}

// mask computes the region mask for axes. A failing or absent region source
// is reported as a warning and the run continues unmasked.
func (p *Pipeline) mask(ctx context.Context, axes domain.Axes) (domain.RegionMask, bool) {
	if p.region == nil {
		p.logger.Warn("no region source configured, output is unmasked", "region", p.opts.Generate.Region)
		p.metrics.MaskApplied.Set(0)
		return domain.RegionMask{}, false
	}
	var mask domain.RegionMask
	err := p.stage("mask", func() error {
		var err error
		mask, err = p.region.Mask(ctx, axes)
		return err
	})
	if err != nil {
		p.logger.Warn("region mask unavailable, output is unmasked", "region", p.opts.Generate.Region, "error", err)
		p.metrics.RegionErrors.Inc()
		p.metrics.MaskApplied.Set(0)
		return domain.RegionMask{}, false
	}
	p.logger.Info("region mask computed", "region", p.opts.Generate.Region, "inside", mask.Count(), "cells", len(mask.Inside))
	p.metrics.MaskApplied.Set(1)
	return mask, true
}

// writeBoundary writes the boundary artifact for a masked run and removes any
// stale one otherwise. It returns the written path or "".
func (p *Pipeline) writeBoundary(ctx context.Context, masked bool) string {
	var path string
	err := p.stage("boundary", func() error {
		if masked {
			ring, err := p.region.Boundary(ctx)
			if err == nil {
				path, err = export.WriteBoundary(p.opts.OutputDir, p.opts.Generate.Region, ring)
			}
			if err == nil {
				return nil
			}
			p.logger.Warn("boundary artifact not written", "region", p.opts.Generate.Region, "error", err)
			p.metrics.RegionErrors.Inc()
		}
		return export.RemoveBoundary(p.opts.OutputDir, p.opts.Generate.Region)
	})
	if err != nil {
		p.logger.Warn("remove stale boundary failed", "error", err)
	}
	if path != "" {
		p.logger.Info("boundary written", "path", path)
	}
	return path
}

// publish delivers the manifest with a short exponential backoff. Failures
// never fail the run.
func (p *Pipeline) publish(ctx context.Context, m domain.Manifest) {
	if p.notifier == nil {
		return
	}
	attempts := max(p.opts.PublishAttempts, 1)
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	_ = p.stage("publish", func() error {
		for i := 1; ; i++ {
			err := p.notifier.Publish(ctx, m)
			if err == nil {
				return nil
			}
			p.logger.Warn("publish manifest failed", "attempt", i, "error", err)
			if i >= attempts || !retry.SleepWithContext(ctx, backoff) {
				p.metrics.PublishErrors.Inc()
				return err
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
		}
	})
}

func (p *Pipeline) logSummaries(kind string, ds *domain.Dataset) {
	for _, name := range ds.Names() {
		attrs := append([]any{"dataset", kind, "variable", name}, domain.Summarize(ds.Vars[name]).LogAttrs()...)
		p.logger.Info("variable summary", attrs...)
	}
}

// stage runs fn and records its duration under the stage label.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

func (p *Pipeline) storeName(kind string) string {
	return domain.RegionSlug(p.opts.Generate.Region) + "_" + kind
}

// runID is the leading 12 hex digits of the artifact checksum, so identical
// artifacts share an ID.
func runID(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
