package hmm

import (
	"fmt"
	"math"

	"github.com/coregenomics/qhmm/logsum"
	"github.com/coregenomics/qhmm/seq"
)

// StatePosterior converts forward and backward matrices into the
// probability-domain state posterior. The output layout transposes to
// state-major rows: out[j*L + i] = P(z_i = j | x), so each state's
// trajectory is one contiguous row.
func (e *Engine) StatePosterior(it *seq.Iter, fw, bk, out []float64) error {
	length := it.Len()
	if err := e.checkMatrix("forward", fw, length); err != nil {
		return err
	}
	if err := e.checkMatrix("backward", bk, length); err != nil {
		return err
	}
	if err := e.checkMatrix("posterior", out, length); err != nil {
		return err
	}

	ls := logsum.New(e.n)
	for i := 0; i < length; i++ {
		// Local log-likelihood at position i.
		ls.Clear()
		for j := 0; j < e.n; j++ {
			ls.Store(fw[i*e.n+j] + bk[i*e.n+j])
		}
		logPx := ls.Compute()

		for j := 0; j < e.n; j++ {
			out[j*length+i] = math.Exp(fw[i*e.n+j] + bk[i*e.n+j] - logPx)
		}
	}

	return nil
}

// LocalLogLik fills out[i] with the per-position log-likelihood
// logsum_j fw[i,j] + bk[i,j].
func (e *Engine) LocalLogLik(it *seq.Iter, fw, bk, out []float64) error {
	length := it.Len()
	if err := e.checkMatrix("forward", fw, length); err != nil {
		return err
	}
	if err := e.checkMatrix("backward", bk, length); err != nil {
		return err
	}
	if len(out) != length {
		return fmt.Errorf("%w: local log-lik len=%d, want %d", ErrDimensionMismatch, len(out), length)
	}

	ls := logsum.New(e.n)
	for i := 0; i < length; i++ {
		ls.Clear()
		for j := 0; j < e.n; j++ {
			ls.Store(fw[i*e.n+j] + bk[i*e.n+j])
		}
		out[i] = ls.Compute()
	}

	return nil
}

// TransitionPosterior fills out with ξ values for the transition into
// the iterator's current position t ≥ 1:
//
//	ξ(k→l) = exp(fw[k,t−1] + log a(k→l) + log e_l(t) + bk[l,t] − loglik)
//
// for every source k in src and, per source, the nTgt targets of that
// source's transition function, in target order. out must hold
// len(src)·nTgt values.
func (e *Engine) TransitionPosterior(it *seq.Iter, fw, bk []float64, loglik float64, src []int, nTgt int, out []float64) error {
	length := it.Len()
	if err := e.checkMatrix("forward", fw, length); err != nil {
		return err
	}
	if err := e.checkMatrix("backward", bk, length); err != nil {
		return err
	}
	if len(out) != len(src)*nTgt {
		return fmt.Errorf("%w: transition posterior len=%d, want %d", ErrDimensionMismatch, len(out), len(src)*nTgt)
	}

	t := it.Index()
	fwSrc := fw[(t-1)*e.n : t*e.n]
	bkTgt := bk[t*e.n : (t+1)*e.n]

	r := 0
	for _, k := range src {
		targets := e.trans.Function(k).Targets()
		for tgtIdx := 0; tgtIdx < nTgt; tgtIdx++ {
			l := targets[tgtIdx]
			logEmission := e.emit.LogProb(it, l)
			logTrans := e.trans.LogProb(it, k, l)

			out[r] = math.Exp(fwSrc[k] + logTrans + logEmission + bkTgt[l] - loglik)
			r++
		}
	}

	return nil
}
