package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampGrid(t, h, w int) *Grid {
	g := NewGrid(t, h, w)
	for i := range g.Data {
		g.Data[i] = float32(i) * 0.25
	}
	return g
}

func TestDownsample_ShapeLaw(t *testing.T) {
	tests := []struct {
		h, w, k int
		want    [3]int
	}{
		{8, 8, 4, [3]int{2, 2, 2}},
		{7, 9, 2, [3]int{2, 3, 4}},
		{5, 5, 5, [3]int{2, 1, 1}},
		{3, 10, 4, [3]int{2, 0, 2}},
	}
	for _, tt := range tests {
		out, err := Downsample(rampGrid(2, tt.h, tt.w), tt.k)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out.Shape(), "(%d,%d)/%d", tt.h, tt.w, tt.k)
	}
}

func TestDownsample_IdentityForFactorOne(t *testing.T) {
	g := rampGrid(3, 4, 5)
	g.Data[7] = Missing

	out, err := Downsample(g, 1)
	require.NoError(t, err)

	if diff := cmp.Diff(g.Data, out.Data, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("k=1 changed data (-in +out):\n%s", diff)
	}
}

func TestDownsample_ConstantBlock(t *testing.T) {
	out, err := Downsample(constantGrid(1, 4, 4, 17.25), 2)
	require.NoError(t, err)
	for _, v := range out.Data {
		assert.Equal(t, float32(17.25), v)
	}
}

func TestDownsample_MissingPolicy(t *testing.T) {
	g := &Grid{T: 1, H: 2, W: 4, Data: []float32{
		1, Missing, Missing, Missing,
		3, 5, Missing, Missing,
	}}

	out, err := Downsample(g, 2)
	require.NoError(t, err)

	assert.Equal(t, float32(3), out.At(0, 0, 0), "partial block averages present cells")
	assert.True(t, IsMissing(out.At(0, 0, 1)), "fully missing block stays missing")
}

func TestDownsample_InvalidFactor(t *testing.T) {
	_, err := Downsample(NewGrid(1, 2, 2), 0)
	assert.ErrorIs(t, err, ErrInvalidFactor)
}

func TestDownsampleAxis(t *testing.T) {
	assert.Equal(t, []float64{0.5, 2.5}, DownsampleAxis([]float64{0, 1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{0, 1, 2}, DownsampleAxis([]float64{0, 1, 2}, 1))
}

func TestDownsampleDataset(t *testing.T) {
	ds := NewDataset(Axes{Lat: []float64{0, 1, 2, 3, 4}, Lon: []float64{10, 11, 12, 13}}, DailyTimes(testStart, 2))
	ds.Attrs["resolution_km"] = 10
	ds.Vars["tmax"] = constantGrid(2, 5, 4, 30)
	ds.Vars["precip"] = constantGrid(2, 5, 4, 2)

	out, err := DownsampleDataset(ds, 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, 2.5}, out.Axes.Lat)
	assert.Equal(t, []float64{10.5, 12.5}, out.Axes.Lon)
	assert.Equal(t, [3]int{2, 2, 2}, out.Shape())
	require.NoError(t, out.Validate())
	assert.Equal(t, 20, out.Attrs["resolution_km"])
	assert.Equal(t, 10, ds.Attrs["resolution_km"])
	assert.Equal(t, [3]int{2, 5, 4}, ds.Vars["tmax"].Shape())
}

func TestDownsampleDataset_RejectsMisaligned(t *testing.T) {
	ds := NewDataset(Axes{Lat: []float64{0, 1}, Lon: []float64{0, 1}}, DailyTimes(testStart, 1))
	ds.Vars["tmax"] = NewGrid(1, 3, 3)
	_, err := DownsampleDataset(ds, 1)
	assert.ErrorIs(t, err, ErrAxisMismatch)
}
