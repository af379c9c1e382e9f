package hmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/coregenomics/qhmm/seq"
)

// StochasticBacktrace samples one state path from the posterior implied
// by a forward matrix, walking backwards from the last position. At
// each step the candidate weights are renormalised to sum 1 to absorb
// rounding, and a sampled index past N−1 is clamped (both guard against
// accumulated floating-point error).
func (e *Engine) StochasticBacktrace(it *seq.Iter, fw []float64, path []int) error {
	length := it.Len()
	if err := e.checkMatrix("forward", fw, length); err != nil {
		return pushFrame(err, "stochastic_backtrace")
	}
	if len(path) != length {
		return pushFrame(fmt.Errorf("%w: path len=%d, want %d", ErrDimensionMismatch, len(path), length), "stochastic_backtrace")
	}

	probs := make([]float64, e.n)

	// Sample the last state from the final forward column; shifting by
	// the column maximum keeps the exponentials in range.
	col := fw[(length-1)*e.n:]
	shift := floats.Max(col)
	if math.IsInf(shift, -1) {
		return pushFrame(fmt.Errorf("%w: forward matrix has no admissible final state", ErrNumericalFailure), "stochastic_backtrace")
	}
	for k := 0; k < e.n; k++ {
		probs[k] = math.Exp(col[k] - shift)
	}
	state := e.sampleState(probs)
	path[length-1] = state

	// Walk backwards; the iterator stays at t+1 so transition lookups
	// see the covariates of the position being entered.
	it.ResetLast()
	for t := length - 2; t >= 0; t-- {
		col = fw[t*e.n : (t+1)*e.n]
		for k := 0; k < e.n; k++ {
			probs[k] = math.Exp(col[k] + e.trans.LogProb(it, k, state))
		}

		state = e.sampleState(probs)
		path[t] = state
		it.Prev()
	}

	return nil
}

// sampleState draws an index proportional to the (renormalised)
// weights, clamping rounding overshoot to N−1.
func (e *Engine) sampleState(probs []float64) int {
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	for i := range probs {
		probs[i] /= sum
	}

	u := e.uniform()
	acc := probs[0]
	state := 0
	for u > acc && state < e.n-1 {
		state++
		acc += probs[state]
	}

	return state
}
