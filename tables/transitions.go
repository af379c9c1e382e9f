package tables

import (
	"fmt"
	"math"

	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/seq"
)

// HomogeneousTransitions caches an N×N matrix of log transition
// probabilities, one row per source state. The cache is rebuilt on
// construction and on every Refresh; lookups never touch the
// distributions.
type HomogeneousTransitions struct {
	n     int
	funcs []dist.Transition
	m     []float64 // row-major N×N cache of log a(i→j)
}

// NewHomogeneousTransitions builds a table over one distribution per
// source state, in state order, and materialises the cache.
func NewHomogeneousTransitions(funcs ...dist.Transition) (*HomogeneousTransitions, error) {
	if len(funcs) == 0 {
		return nil, ErrNoStates
	}
	for i, f := range funcs {
		if f.NStates() != len(funcs) {
			return nil, fmt.Errorf("%w: state %d declares %d states, table has %d",
				ErrStateMismatch, i, f.NStates(), len(funcs))
		}
	}

	t := &HomogeneousTransitions{
		n:     len(funcs),
		funcs: funcs,
		m:     make([]float64, len(funcs)*len(funcs)),
	}
	t.Refresh()

	return t, nil
}

// Refresh recomputes the cached matrix from the distributions. Call it
// after any transition parameter changes.
func (t *HomogeneousTransitions) Refresh() {
	for i := 0; i < t.n; i++ {
		row := t.m[i*t.n : (i+1)*t.n]
		for j := 0; j < t.n; j++ {
			row[j] = t.funcs[i].LogProb(j)
		}
	}
}

// NStates returns the number of states N.
func (t *HomogeneousTransitions) NStates() int { return t.n }

// Function returns the distribution owning row i.
func (t *HomogeneousTransitions) Function(i int) dist.Transition { return t.funcs[i] }

// LogProb returns the cached log a(i→j); the iterator is ignored.
func (t *HomogeneousTransitions) LogProb(_ *seq.Iter, i, j int) float64 {
	return t.m[i*t.n+j]
}

// Sparse reports whether at least half of the cells are −∞.
func (t *HomogeneousTransitions) Sparse() bool {
	invalid := 0
	for _, v := range t.m {
		if math.IsInf(v, -1) {
			invalid++
		}
	}

	return 2*invalid >= t.n*t.n
}

// PreviousStates returns, for each state j, the source states i with a
// valid transition into j, in ascending order.
func (t *HomogeneousTransitions) PreviousStates() [][]int {
	previous := make([][]int, t.n)
	for j := 0; j < t.n; j++ {
		var list []int
		for i := 0; i < t.n; i++ {
			if !math.IsInf(t.m[i*t.n+j], -1) {
				list = append(list, i)
			}
		}
		previous[j] = list
	}

	return previous
}

// NextStates returns, for each state i, the destination states j with a
// valid transition out of i, in ascending order.
func (t *HomogeneousTransitions) NextStates() [][]int {
	next := make([][]int, t.n)
	for i := 0; i < t.n; i++ {
		var list []int
		for j := 0; j < t.n; j++ {
			if !math.IsInf(t.m[i*t.n+j], -1) {
				list = append(list, j)
			}
		}
		next[i] = list
	}

	return next
}

// NonHomogeneousTransitions delegates every lookup to the source
// state's distribution so transition probabilities can follow the
// covariates at the current position.
type NonHomogeneousTransitions struct {
	n     int
	funcs []dist.Transition
}

// NewNonHomogeneousTransitions builds a covariate-driven table over one
// distribution per source state, in state order.
func NewNonHomogeneousTransitions(funcs ...dist.Transition) (*NonHomogeneousTransitions, error) {
	if len(funcs) == 0 {
		return nil, ErrNoStates
	}
	for i, f := range funcs {
		if f.NStates() != len(funcs) {
			return nil, fmt.Errorf("%w: state %d declares %d states, table has %d",
				ErrStateMismatch, i, f.NStates(), len(funcs))
		}
	}

	return &NonHomogeneousTransitions{n: len(funcs), funcs: funcs}, nil
}

// NStates returns the number of states N.
func (t *NonHomogeneousTransitions) NStates() int { return t.n }

// Function returns the distribution owning row i.
func (t *NonHomogeneousTransitions) Function(i int) dist.Transition { return t.funcs[i] }

// LogProb returns log a(i→j) given the covariates at the current
// position of it.
func (t *NonHomogeneousTransitions) LogProb(it *seq.Iter, i, j int) float64 {
	return t.funcs[i].LogProbAt(it, j)
}

// Sparse always reports false: the support may change with position.
func (t *NonHomogeneousTransitions) Sparse() bool { return false }
