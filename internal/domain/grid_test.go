package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAxes(t *testing.T) {
	a, err := BuildAxes(Bounds{LatMin: 0, LatMax: 3, LonMin: 10, LonMax: 12}, 1)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1, 2}, a.Lat)
	assert.Equal(t, []float64{10, 11}, a.Lon)
	h, w := a.Shape()
	assert.Equal(t, 3, h)
	assert.Equal(t, 2, w)
}

func TestBuildAxes_LengthIsCeil(t *testing.T) {
	b := Bounds{LatMin: -44, LatMax: -10, LonMin: 113, LonMax: 154}
	a, err := BuildAxes(b, 0.09)
	require.NoError(t, err)

	assert.Len(t, a.Lat, int(math.Ceil(34/0.09)))
	assert.Len(t, a.Lon, int(math.Ceil(41/0.09)))
	assert.Less(t, a.Lat[len(a.Lat)-1], b.LatMax)
	assert.Less(t, a.Lon[len(a.Lon)-1], b.LonMax)
	assert.Greater(t, a.Lon[len(a.Lon)-1], b.LonMax-0.09-1e-9)
}

func TestBuildAxes_StrictlyIncreasing(t *testing.T) {
	a, err := BuildAxes(Bounds{LatMin: -44, LatMax: -10, LonMin: 113, LonMax: 154}, 0.25)
	require.NoError(t, err)
	for i := 1; i < len(a.Lat); i++ {
		assert.Greater(t, a.Lat[i], a.Lat[i-1])
	}
}

func TestBuildAxes_Errors(t *testing.T) {
	tests := []struct {
		name   string
		bounds Bounds
		step   float64
		want   error
	}{
		{"lat inverted", Bounds{LatMin: 1, LatMax: 0, LonMin: 0, LonMax: 1}, 0.1, ErrInvalidBounds},
		{"lon equal", Bounds{LatMin: 0, LatMax: 1, LonMin: 5, LonMax: 5}, 0.1, ErrInvalidBounds},
		{"zero step", Bounds{LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1}, 0, ErrInvalidResolution},
		{"negative step", Bounds{LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1}, -0.5, ErrInvalidResolution},
		{"nan step", Bounds{LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1}, math.NaN(), ErrInvalidResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildAxes(tt.bounds, tt.step)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMeshgrid(t *testing.T) {
	m := Meshgrid(Axes{Lat: []float64{-30, -29}, Lon: []float64{140, 141, 142}})

	assert.Equal(t, 2, m.H)
	assert.Equal(t, 3, m.W)
	assert.Equal(t, []float64{-30, -30, -30, -29, -29, -29}, m.Lat)
	assert.Equal(t, []float64{140, 141, 142, 140, 141, 142}, m.Lon)
}

func TestAxesEqual(t *testing.T) {
	a := Axes{Lat: []float64{1, 2}, Lon: []float64{3}}
	assert.True(t, a.Equal(Axes{Lat: []float64{1, 2}, Lon: []float64{3}}))
	assert.False(t, a.Equal(Axes{Lat: []float64{1, 2}, Lon: []float64{3, 4}}))
	assert.False(t, a.Equal(Axes{Lat: []float64{1, 2.5}, Lon: []float64{3}}))
}
