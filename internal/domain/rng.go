package domain

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
)

// Seed purposes. Each (variable, day, purpose) tuple draws from its own stream so
// stage and worker ordering never changes output values.
const (
	PurposeBaseline = "baseline"
	PurposeDaily    = "daily"
	PurposeAnomaly  = "anomaly"
	PurposeBias     = "bias"
)

// DeriveSeed mixes the run seed with a variable name and purpose.
func DeriveSeed(base uint64, variable, purpose string) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], base)
	h.Write(buf[:])
	h.Write([]byte(variable))
	h.Write([]byte{0})
	h.Write([]byte(purpose))
	return h.Sum64()
}

// NewRand returns an explicit generator instance for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// gaussianNoise returns n draws from N(0, sigma) using its own generator.
func gaussianNoise(seed uint64, n int, sigma float64) []float64 {
	out := make([]float64, n)
	if sigma == 0 {
		return out
	}
	r := NewRand(seed)
	for i := range out {
		out[i] = r.NormFloat64() * sigma
	}
	return out
}
