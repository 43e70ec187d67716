package domain

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Attrs holds descriptive attributes. Values are string, float64 or int.
type Attrs map[string]any

// Attribute keys written by the generator.
const (
	AttrLongName     = "long_name"
	AttrStandardName = "standard_name"
	AttrUnits        = "units"
	AttrValidMin     = "valid_min"
	AttrValidMax     = "valid_max"
	AttrAxis         = "axis"
)

// VariableAttrKeys lists the per-variable attribute keys, in write order.
var VariableAttrKeys = []string{AttrLongName, AttrStandardName, AttrUnits, AttrValidMin, AttrValidMax}

// GlobalAttrKeys lists the dataset-level attribute keys, in write order.
var GlobalAttrKeys = []string{"title", "institution", "source", "Conventions", "crs", "resolution_km", "created"}

// DateLayout is the day format used for time axes everywhere outside memory.
const DateLayout = "2006-01-02"

// Dataset is a set of named variable grids sharing one set of axes.
type Dataset struct {
	Axes     Axes
	Times    []time.Time
	Vars     map[string]*Grid
	Attrs    Attrs
	VarAttrs map[string]Attrs
}

// NewDataset creates an empty dataset over the given axes and days.
func NewDataset(axes Axes, times []time.Time) *Dataset {
	return &Dataset{
		Axes:     axes,
		Times:    times,
		Vars:     make(map[string]*Grid),
		Attrs:    Attrs{},
		VarAttrs: make(map[string]Attrs),
	}
}

// DailyTimes returns n contiguous days starting at start (truncated to UTC midnight).
func DailyTimes(start time.Time, n int) []time.Time {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for d := range out {
		out[d] = start.AddDate(0, 0, d)
	}
	return out
}

// Names returns the variable names in sorted order.
func (ds *Dataset) Names() []string {
	return slices.Sorted(maps.Keys(ds.Vars))
}

// Shape returns the (T, H, W) every variable must have.
func (ds *Dataset) Shape() [3]int {
	h, w := ds.Axes.Shape()
	return [3]int{len(ds.Times), h, w}
}

// Validate checks that every variable matches the dataset axes.
func (ds *Dataset) Validate() error {
	want := ds.Shape()
	for name, g := range ds.Vars {
		if g.Shape() != want {
			return fmt.Errorf("%w: variable %s has shape %v, axes give %v", ErrAxisMismatch, name, g.Shape(), want)
		}
	}
	return nil
}

// CheckAligned returns ErrAxisMismatch unless both datasets share axes and days.
func CheckAligned(a, b *Dataset) error {
	if !a.Axes.Equal(b.Axes) {
		return fmt.Errorf("%w: lat/lon axes differ", ErrAxisMismatch)
	}
	if len(a.Times) != len(b.Times) {
		return fmt.Errorf("%w: %d vs %d days", ErrAxisMismatch, len(a.Times), len(b.Times))
	}
	for i := range a.Times {
		if !a.Times[i].Equal(b.Times[i]) {
			return fmt.Errorf("%w: day %d differs", ErrAxisMismatch, i)
		}
	}
	return nil
}

// Derive returns a dataset with the same axes, days and attributes as ds but no
// variables. Attribute maps are copied.
func (ds *Dataset) Derive() *Dataset {
	out := NewDataset(ds.Axes, slices.Clone(ds.Times))
	out.Attrs = maps.Clone(ds.Attrs)
	for name, a := range ds.VarAttrs {
		out.VarAttrs[name] = maps.Clone(a)
	}
	return out
}

// Clone returns a deep copy.
func (ds *Dataset) Clone() *Dataset {
	out := ds.Derive()
	for name, g := range ds.Vars {
		out.Vars[name] = g.Clone()
	}
	return out
}

// FormatTimes renders the time axis as YYYY-MM-DD strings.
func (ds *Dataset) FormatTimes() []string {
	out := make([]string, len(ds.Times))
	for i, t := range ds.Times {
		out[i] = t.UTC().Format(DateLayout)
	}
	return out
}
