package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskFixture() (*Dataset, RegionMask) {
	axes := Axes{Lat: []float64{0, 1}, Lon: []float64{0, 1, 2}}
	ds := NewDataset(axes, DailyTimes(testStart, 2))
	ds.Vars["tmax"] = &Grid{T: 2, H: 2, W: 3, Data: []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}
	ds.Vars["rh"] = &Grid{T: 2, H: 2, W: 3, Data: []float32{50, 50, 50, 50, 50, 50, 60, 60, 60, 60, 60, 60}}

	mask := NewRegionMask(2, 3)
	mask.Set(0, 1, true)
	mask.Set(1, 0, true)
	mask.Set(1, 2, true)
	return ds, mask
}

func TestApplyMask(t *testing.T) {
	ds, mask := maskFixture()

	out, err := ApplyMask(ds, mask)
	require.NoError(t, err)

	g := out.Vars["tmax"]
	for d := 0; d < 2; d++ {
		for i := 0; i < 2; i++ {
			for j := 0; j < 3; j++ {
				if mask.Contains(i, j) {
					assert.Equal(t, ds.Vars["tmax"].At(d, i, j), g.At(d, i, j))
				} else {
					assert.True(t, IsMissing(g.At(d, i, j)), "(%d,%d,%d) should be missing", d, i, j)
				}
			}
		}
	}
	assert.Equal(t, 3, mask.Count())
	assert.False(t, IsMissing(ds.Vars["tmax"].At(0, 0, 0)), "input must not be modified")
}

func TestApplyMask_Idempotent(t *testing.T) {
	ds, mask := maskFixture()

	once, err := ApplyMask(ds, mask)
	require.NoError(t, err)
	twice, err := ApplyMask(once, mask)
	require.NoError(t, err)

	for _, name := range once.Names() {
		if diff := cmp.Diff(once.Vars[name].Data, twice.Vars[name].Data, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("%s changed on second mask (-once +twice):\n%s", name, diff)
		}
	}
}

func TestApplyMask_ShapeMismatch(t *testing.T) {
	ds, _ := maskFixture()
	_, err := ApplyMask(ds, NewRegionMask(3, 2))
	assert.ErrorIs(t, err, ErrAxisMismatch)
}
