package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the non-missing values of a grid.
type Summary struct {
	Min     float64
	Max     float64
	Mean    float64
	Present int
	Missing int
}

// Summarize computes min, max and mean over present cells.
func Summarize(g *Grid) Summary {
	vals := g.Present()
	s := Summary{Present: len(vals), Missing: len(g.Data) - len(vals)}
	if len(vals) == 0 {
		return s
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	s.Mean = stat.Mean(vals, nil)
	return s
}

// LogAttrs flattens the summary into slog key/value pairs.
func (s Summary) LogAttrs() []any {
	return []any{
		"min", roundTo(s.Min, 2),
		"max", roundTo(s.Max, 2),
		"mean", roundTo(s.Mean, 2),
		"present", s.Present,
		"missing", s.Missing,
	}
}

// roundTo trims summary values for log output.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
