package hmm

import (
	"fmt"
	"math"

	"github.com/coregenomics/qhmm/seq"
)

// Viterbi decodes the maximum-probability state path into path (length
// L) and returns the path's log-score. Ties break toward the lowest
// state index attaining the maximum (strict > updates). The DP matrix
// and back-pointer matrix are engine-allocated scratch, released on all
// exit paths.
func (e *Engine) Viterbi(it *seq.Iter, path []int) (float64, error) {
	length := it.Len()
	if len(path) != length {
		return 0, pushFrame(fmt.Errorf("%w: path len=%d, want %d", ErrDimensionMismatch, len(path), length), "viterbi")
	}

	matrix := make([]float64, e.n*length)
	backptr := make([]int, e.n*length)

	// First column: log e_l(0) + log π_l, back-pointer −1 (stop mark).
	it.ResetFirst()
	for l := 0; l < e.n; l++ {
		matrix[l] = e.emit.LogProb(it, l) + e.initLog[l]
		backptr[l] = -1
	}

	// Inner columns.
	for t := 1; it.Next(); t++ {
		prev := matrix[(t-1)*e.n : t*e.n]
		col := matrix[t*e.n : (t+1)*e.n]
		bcol := backptr[t*e.n : (t+1)*e.n]

		for l := 0; l < e.n; l++ {
			best := math.Inf(-1)
			argbest := -1
			for k := 0; k < e.n; k++ {
				value := prev[k] + e.trans.LogProb(it, k, l)
				if value > best {
					best = value
					argbest = k
				}
			}
			col[l] = e.emit.LogProb(it, l) + best
			bcol[l] = argbest
		}
	}

	// Last state: argmax of the final column.
	best := math.Inf(-1)
	state := -1
	last := matrix[(length-1)*e.n:]
	for k := 0; k < e.n; k++ {
		if last[k] > best {
			best = last[k]
			state = k
		}
	}
	if math.IsNaN(best) || state < 0 {
		return 0, pushFrame(fmt.Errorf("%w: no admissible final state", ErrNumericalFailure), "viterbi")
	}
	path[length-1] = state

	// Walk the back-pointers.
	for t := length - 1; t > 0; t-- {
		state = backptr[t*e.n+state]
		path[t-1] = state
	}

	return best, nil
}
