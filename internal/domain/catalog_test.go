package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog(Bounds{LatMin: -44, LatMax: -10, LonMin: 113, LonMax: 154})

	assert.Equal(t, []string{
		"tmax", "tmin", "precip", "rh", "wind_avg", "wind_gust", "pressure_sfc",
		"geopotential_850", "geopotential_700", "geopotential_500", "geopotential_250",
	}, cat.Names())

	for _, v := range cat {
		assert.Less(t, v.Valid.Min, v.Valid.Max, v.Name)
		assert.NotEmpty(t, v.DisplayName, v.Name)
		assert.NotEmpty(t, v.Unit, v.Name)
		assert.NotZero(t, v.Bias.Scale, v.Name)
	}
}

func TestCatalog_Lookup(t *testing.T) {
	cat := DefaultCatalog(Bounds{LatMin: -44, LatMax: -10, LonMin: 113, LonMax: 154})

	precip, ok := cat.Lookup("precip")
	require.True(t, ok)
	assert.Equal(t, "mm", precip.Unit)
	assert.Equal(t, 1.4, precip.Bias.Scale)
	require.NotNil(t, precip.Anomaly)
	assert.True(t, precip.Anomaly.FloorZero)
	assert.Equal(t, KernelCircular, precip.Anomaly.Kernel)

	tmax, ok := cat.Lookup("tmax")
	require.True(t, ok)
	assert.Equal(t, KernelBand, tmax.Anomaly.Kernel)
	assert.False(t, tmax.Anomaly.FloorZero)

	_, ok = cat.Lookup("snow")
	assert.False(t, ok)
}

func TestCatalog_Select(t *testing.T) {
	cat := DefaultCatalog(Bounds{LatMin: -44, LatMax: -10, LonMin: 113, LonMax: 154})

	sub, err := cat.Select("precip", "tmax")
	require.NoError(t, err)
	assert.Equal(t, []string{"precip", "tmax"}, sub.Names())

	_, err = cat.Select("tmax", "snow")
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestVariableSpec_Attrs(t *testing.T) {
	v := VariableSpec{DisplayName: "Relative Humidity", CFUnits: "%", Valid: Range{Min: 20, Max: 90}}
	a := v.Attrs()
	assert.Equal(t, "Relative Humidity", a[AttrLongName])
	assert.Equal(t, 20.0, a[AttrValidMin])
	assert.NotContains(t, a, AttrStandardName)
}
