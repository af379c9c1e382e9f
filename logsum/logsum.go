package logsum

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// LogSum accumulates log-domain terms and computes their stable
// log-sum-exp. The zero value is not ready for use; call New.
type LogSum struct {
	max    float64   // running maximum of stored terms
	values []float64 // stored terms, in insertion order
}

// New returns an accumulator with capacity for n terms. Storing more than
// n terms is permitted (the backing slice grows), but sizing to the state
// count keeps DP sweeps allocation-free.
func New(n int) *LogSum {
	return &LogSum{
		max:    math.Inf(-1),
		values: make([]float64, 0, n),
	}
}

// Clear resets the accumulator to the empty sum.
func (s *LogSum) Clear() {
	s.max = math.Inf(-1)
	s.values = s.values[:0]
}

// Store adds one term. x may be any finite real or −∞.
func (s *LogSum) Store(x float64) {
	if x > s.max {
		s.max = x
	}
	s.values = append(s.values, x)
}

// Compute returns m + log Σ exp(xᵢ − m) where m is the maximum stored
// term. An empty accumulator, or one holding only −∞ terms, yields −∞.
func (s *LogSum) Compute() float64 {
	// All terms are −∞ (or nothing stored): the sum is log 0.
	if math.IsInf(s.max, -1) {
		return math.Inf(-1)
	}

	return floats.LogSumExp(s.values)
}
