// Package domain synthesizes gridded meteorological datasets.
//
// # Data Model
//
// A [Dataset] holds one (time, lat, lon) float32 [Grid] per variable, all
// sharing a single pair of [Axes] and a contiguous daily time axis. Missing
// cells are NaN in memory ([Missing]) and become null only when exported.
//
// # Synthesis
//
// Each variable is described by a row of the [Catalog]:
//
//	baseline  = clip(base + gradient*lat_norm + smooth(N(0, sigma)))
//	anomaly_d = smooth(peak * envelope(d) * kernel(cell, center(d)) + N(0, s))
//	value_d   = clip(baseline + anomaly_d + daily_d)
//
// The center of a moving system is a pure function of progress = d/(N-1), so
// systems sharing longitude bounds are co-located on every day. Envelopes are
// piecewise linear (build-up, plateau, decay) and configured per system.
//
// # Reproducibility
//
// Every noise draw uses its own generator seeded from (run seed, variable,
// purpose) plus the day index. Stage and worker ordering never changes values.
//
// # Post-processing
//
// [ApplyMask] sets cells outside a [RegionMask] to missing,
// [ApplyForecastBias] derives the forecast dataset, and [DownsampleDataset]
// block-averages by an integer factor with a trim boundary policy.
package domain
