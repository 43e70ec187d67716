package domain

import "math"

// gaussianTruncate is the kernel half-width in standard deviations.
const gaussianTruncate = 4.0

// gaussianKernel returns a normalized 1-D kernel of radius int(truncate*sigma+0.5).
func gaussianKernel(sigma float64) []float64 {
	radius := int(gaussianTruncate*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		k[i+radius] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflectIndex maps an out-of-range index onto [0, n) by half-sample symmetric
// reflection: (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}
	return i
}

// Smooth applies a separable Gaussian filter with standard deviation sigma (in
// grid cells) and reflect boundary handling. A non-positive sigma returns a copy.
// The input is not modified.
func Smooth(f Field, sigma float64) Field {
	if sigma <= 0 || f.H == 0 || f.W == 0 {
		return f.Clone()
	}
	k := gaussianKernel(sigma)
	r := len(k) / 2

	tmp := NewField(f.H, f.W)
	for i := 0; i < f.H; i++ {
		row := f.Data[i*f.W : (i+1)*f.W]
		for j := 0; j < f.W; j++ {
			var acc float64
			for o := -r; o <= r; o++ {
				acc += k[o+r] * row[reflectIndex(j+o, f.W)]
			}
			tmp.Data[i*f.W+j] = acc
		}
	}

	out := NewField(f.H, f.W)
	for i := 0; i < f.H; i++ {
		for j := 0; j < f.W; j++ {
			var acc float64
			for o := -r; o <= r; o++ {
				acc += k[o+r] * tmp.Data[reflectIndex(i+o, f.H)*f.W+j]
			}
			out.Data[i*f.W+j] = acc
		}
	}
	return out
}
