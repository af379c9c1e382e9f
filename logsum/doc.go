// Package logsum provides a numerically stable accumulator for
// log-domain sums: log Σ exp(xᵢ) over a bounded number of terms.
//
// Overview:
//
//   - The DP recurrences of an HMM add probabilities whose logs differ by
//     hundreds of units; naive exp/sum/log underflows to zero long before
//     the sum is meaningless.
//   - LogSum keeps the running maximum m of the stored terms and computes
//     m + log Σ exp(xᵢ − m), which is exact for the dominant term and
//     stable for the rest.
//   - −∞ is a valid input (log of zero probability) and propagates
//     correctly: a sum of only −∞ terms is −∞.
//
// Usage:
//
//	ls := logsum.New(nStates)
//	for k := 0; k < nStates; k++ {
//	    ls.Store(col[k])
//	}
//	loglik := ls.Compute()
//	ls.Clear() // reuse for the next column
//
// Complexity: Store is O(1) amortized; Compute is O(n) over the stored
// terms. A single accumulator is reused across all columns of a DP sweep.
package logsum
