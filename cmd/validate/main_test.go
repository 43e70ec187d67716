package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/couchcryptid/synthetic-met-data/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBounds = domain.Bounds{LatMin: -44, LatMax: -10, LonMin: 113, LonMax: 154}

func testPayload(t *testing.T) *export.Payload {
	t.Helper()
	axes := domain.Axes{Lat: []float64{-30, -29}, Lon: []float64{140, 141}}
	times := domain.DailyTimes(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 2)

	obs := domain.NewDataset(axes, times)
	obs.Vars["tmax"] = &domain.Grid{T: 2, H: 2, W: 2, Data: []float32{
		25, 26, domain.Missing, 27,
		28, 29, domain.Missing, 30,
	}}
	fc := obs.Derive()
	fc.Vars["tmax"] = &domain.Grid{T: 2, H: 2, W: 2, Data: []float32{
		26, 27, domain.Missing, 28,
		29, 30, domain.Missing, 31,
	}}

	p, err := export.Build(obs, fc, domain.DefaultCatalog(testBounds))
	require.NoError(t, err)
	return p
}

func TestPhases_ValidPayload(t *testing.T) {
	p := testPayload(t)
	for _, ph := range []*phase{
		validateSchema(p),
		validateAxes(p),
		validateShapes(p),
		validateRanges(p),
		validateNulls(p),
		validateParity(p),
	} {
		assert.True(t, ph.passed(), "%s: %v", ph.name, ph.errors)
	}
}

func TestValidateAxes_GapInTimes(t *testing.T) {
	p := testPayload(t)
	p.Metadata.Times = []string{"2024-01-15", "2024-01-17"}

	ph := validateAxes(p)
	assert.False(t, ph.passed())
}

func TestValidateShapes_Mismatch(t *testing.T) {
	p := testPayload(t)
	p.Metadata.Lon = append(p.Metadata.Lon, 142)

	ph := validateShapes(p)
	assert.Len(t, ph.errors, 2)
}

func TestValidateRanges_OutOfBounds(t *testing.T) {
	p := testPayload(t)
	c := p.Obs["tmax"]
	c.Data[0] = 99
	p.Obs["tmax"] = c

	ph := validateRanges(p)
	require.Len(t, ph.errors, 1)
	assert.Contains(t, ph.errors[0], "obs.tmax")
}

func TestValidateNulls_MaskDiffers(t *testing.T) {
	p := testPayload(t)
	c := p.Forecast["tmax"]
	c.Data[0] = domain.Missing
	p.Forecast["tmax"] = c

	ph := validateNulls(p)
	assert.False(t, ph.passed())
}

func TestValidateParity_MissingForecast(t *testing.T) {
	p := testPayload(t)
	delete(p.Forecast, "tmax")

	ph := validateParity(p)
	require.Len(t, ph.errors, 1)
	assert.Contains(t, ph.errors[0], "not in forecast")
}

func TestValidateBoundary(t *testing.T) {
	p := testPayload(t)
	dir := t.TempDir()
	ring := []domain.Vertex{{Lon: 140, Lat: -30}, {Lon: 141, Lat: -30}, {Lon: 140.5, Lat: -29}, {Lon: 140, Lat: -30}}
	path, err := export.WriteBoundary(dir, "Test", ring)
	require.NoError(t, err)

	ph := validateBoundary(path, p)
	assert.True(t, ph.passed(), ph.errors)

	ph = validateBoundary(filepath.Join(dir, "missing.json"), p)
	assert.False(t, ph.passed())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	sizes, err := export.WriteFiles(dir, testPayload(t), false)
	require.NoError(t, err)

	assert.Equal(t, 0, run(sizes.Path, ""))
	assert.Equal(t, 1, run(filepath.Join(dir, "absent.json.gz"), ""))
}
