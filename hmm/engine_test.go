package hmm_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/hmm"
	"github.com/coregenomics/qhmm/seq"
	"github.com/coregenomics/qhmm/tables"
)

// coinModel is the two-state fair/biased coin: emissions over {0,1}
// with F:[0.5,0.5], B:[0.1,0.9]; transitions F→F=0.9, F→B=0.1,
// B→B=0.8, B→F=0.2; initial [1, 0].
type coinModel struct {
	engine *hmm.Engine
	init   []float64
	trans  [][]float64
	emit   [][]float64
}

func newCoinModel(t *testing.T) *coinModel {
	t.Helper()

	eF := dist.NewDiscreteEmission(0, 0)
	require.NoError(t, eF.SetParams(dist.NewParams(0.5, 0.5)))
	eB := dist.NewDiscreteEmission(1, 0)
	require.NoError(t, eB.SetParams(dist.NewParams(0.1, 0.9)))

	tF := dist.NewDiscreteTransition(2, 0, []int{0, 1})
	require.NoError(t, tF.SetParams(dist.NewParams(0.9, 0.1)))
	tB := dist.NewDiscreteTransition(2, 1, []int{0, 1})
	require.NoError(t, tB.SetParams(dist.NewParams(0.2, 0.8)))

	tt, err := tables.NewHomogeneousTransitions(tF, tB)
	require.NoError(t, err)
	et, err := tables.NewEmissions(eF, eB)
	require.NoError(t, err)

	engine, err := hmm.New(tt, et)
	require.NoError(t, err)
	require.NoError(t, engine.SetInitialProbs([]float64{1.0, 0.0}))

	return &coinModel{
		engine: engine,
		init:   []float64{1.0, 0.0},
		trans:  [][]float64{{0.9, 0.1}, {0.2, 0.8}},
		emit:   [][]float64{{0.5, 0.5}, {0.1, 0.9}},
	}
}

func coinSequence(t *testing.T) *seq.Sequence {
	t.Helper()

	s, err := seq.New(6, []int{1}, []float64{0, 1, 1, 1, 1, 0}, nil, nil)
	require.NoError(t, err)

	return s
}

// pathLogScore computes the exact log-score of one state path.
func (m *coinModel) pathLogScore(obs []float64, path []int) float64 {
	score := math.Log(m.init[path[0]]) + math.Log(m.emit[path[0]][int(obs[0])])
	for t := 1; t < len(obs); t++ {
		score += math.Log(m.trans[path[t-1]][path[t]])
		score += math.Log(m.emit[path[t]][int(obs[t])])
	}

	return score
}

// enumerate brute-forces all 2^L paths, returning the total
// log-likelihood and the argmax path (first in lexicographic order on
// ties).
func (m *coinModel) enumerate(obs []float64) (float64, []int) {
	length := len(obs)
	nPaths := 1 << length

	total := 0.0
	best := math.Inf(-1)
	bestPath := make([]int, length)

	path := make([]int, length)
	for mask := 0; mask < nPaths; mask++ {
		for t := 0; t < length; t++ {
			path[t] = (mask >> t) & 1
		}
		score := m.pathLogScore(obs, path)
		total += math.Exp(score)
		if score > best {
			best = score
			copy(bestPath, path)
		}
	}

	return math.Log(total), bestPath
}

// TestForward_CoinHandComputed pins the forward log-likelihood to the
// exact path-sum value (≈ −3.9058 for this sequence).
func TestForward_CoinHandComputed(t *testing.T) {
	m := newCoinModel(t)
	s := coinSequence(t)
	obs := []float64{0, 1, 1, 1, 1, 0}

	fw := make([]float64, 2*s.Len())
	loglik, err := m.engine.Forward(s.Iter(), fw)
	require.NoError(t, err)

	want, _ := m.enumerate(obs)
	require.InDelta(t, want, loglik, 1e-10)
}

// TestForwardBackward_Agree is the universal invariant: forward and
// backward log-likelihoods agree within 1e-9 relative tolerance.
func TestForwardBackward_Agree(t *testing.T) {
	m := newCoinModel(t)
	s := coinSequence(t)

	fw := make([]float64, 2*s.Len())
	bk := make([]float64, 2*s.Len())

	fll, err := m.engine.Forward(s.Iter(), fw)
	require.NoError(t, err)
	bll, err := m.engine.Backward(s.Iter(), bk)
	require.NoError(t, err)

	require.InDelta(t, fll, bll, 1e-9*math.Abs(fll))
}

// TestViterbi_CoinPath fixes the decoded path against brute force and
// asserts the returned score equals the path-sum score.
func TestViterbi_CoinPath(t *testing.T) {
	m := newCoinModel(t)
	s := coinSequence(t)
	obs := []float64{0, 1, 1, 1, 1, 0}

	path := make([]int, s.Len())
	score, err := m.engine.Viterbi(s.Iter(), path)
	require.NoError(t, err)

	_, want := m.enumerate(obs)
	require.Equal(t, want, path)
	require.InDelta(t, m.pathLogScore(obs, path), score, 1e-10)
}

// TestStatePosterior_RowsSumToOne checks Σ_j posterior[j,i] = 1 at
// every position, and that LocalLogLik is constant and equal to the
// sequence log-likelihood.
func TestStatePosterior_RowsSumToOne(t *testing.T) {
	m := newCoinModel(t)
	s := coinSequence(t)
	length := s.Len()

	fw := make([]float64, 2*length)
	bk := make([]float64, 2*length)
	post := make([]float64, 2*length)
	local := make([]float64, length)

	loglik, err := m.engine.Forward(s.Iter(), fw)
	require.NoError(t, err)
	_, err = m.engine.Backward(s.Iter(), bk)
	require.NoError(t, err)

	require.NoError(t, m.engine.StatePosterior(s.Iter(), fw, bk, post))
	for i := 0; i < length; i++ {
		sum := post[i] + post[length+i]
		require.InDelta(t, 1.0, sum, 1e-9, "position %d", i)
	}

	require.NoError(t, m.engine.LocalLogLik(s.Iter(), fw, bk, local))
	for i := 0; i < length; i++ {
		require.InDelta(t, loglik, local[i], 1e-9, "position %d", i)
	}
}

// TestTransitionPosterior_SumsToOne checks that ξ over the full
// src×target set of any interior position sums to 1.
func TestTransitionPosterior_SumsToOne(t *testing.T) {
	m := newCoinModel(t)
	s := coinSequence(t)
	length := s.Len()

	fw := make([]float64, 2*length)
	bk := make([]float64, 2*length)

	loglik, err := m.engine.Forward(s.Iter(), fw)
	require.NoError(t, err)
	_, err = m.engine.Backward(s.Iter(), bk)
	require.NoError(t, err)

	out := make([]float64, 2*2)
	it := s.Iter()
	for pos := 1; pos < length; pos++ {
		require.True(t, it.Next())
		require.NoError(t, m.engine.TransitionPosterior(it, fw, bk, loglik, []int{0, 1}, 2, out))

		sum := 0.0
		for _, v := range out {
			sum += v
		}
		require.InDelta(t, 1.0, sum, 1e-9, "position %d", pos)
	}
}

// TestSparseChain_NoBackEdgeMass runs the left-to-right 5-state chain:
// states are unreachable before their index, so fw[i,j] must be −∞ for
// j > i and the Viterbi path must be non-decreasing.
func TestSparseChain_NoBackEdgeMass(t *testing.T) {
	const n = 5

	emits := make([]dist.Emission, n)
	trans := make([]dist.Transition, n)
	for i := 0; i < n; i++ {
		e := dist.NewDiscreteEmission(i, 0)
		probs := make([]float64, n)
		for j := range probs {
			probs[j] = 0.1 / float64(n-1)
		}
		probs[i] = 0.9
		require.NoError(t, e.SetParams(dist.NewParams(probs...)))
		emits[i] = e

		targets := []int{i}
		if i+1 < n {
			targets = append(targets, i+1)
		}
		trans[i] = dist.NewDiscreteTransition(n, i, targets)
	}

	tt, err := tables.NewHomogeneousTransitions(trans...)
	require.NoError(t, err)
	require.True(t, tt.Sparse())
	et, err := tables.NewEmissions(emits...)
	require.NoError(t, err)

	engine, err := hmm.New(tt, et)
	require.NoError(t, err)
	require.NoError(t, engine.SetInitialProbs([]float64{1, 0, 0, 0, 0}))

	s, err := seq.New(6, []int{1}, []float64{0, 1, 2, 2, 3, 4}, nil, nil)
	require.NoError(t, err)
	length := s.Len()

	fw := make([]float64, n*length)
	bk := make([]float64, n*length)

	fll, err := engine.Forward(s.Iter(), fw)
	require.NoError(t, err)
	bll, err := engine.Backward(s.Iter(), bk)
	require.NoError(t, err)
	require.InDelta(t, fll, bll, 1e-9*math.Abs(fll))

	for i := 0; i < length; i++ {
		for j := i + 1; j < n; j++ {
			require.True(t, math.IsInf(fw[i*n+j], -1),
				"state %d is unreachable at position %d", j, i)
		}
	}

	path := make([]int, length)
	_, err = engine.Viterbi(s.Iter(), path)
	require.NoError(t, err)
	for i := 1; i < length; i++ {
		require.LessOrEqual(t, path[i-1], path[i], "back-step in Viterbi path")
	}
}

// flipTransition flips between two rows on the covariate entering the
// target position — a minimal non-homogeneous family.
type flipTransition struct {
	*dist.DiscreteTransition
	alt *dist.DiscreteTransition
}

func (f *flipTransition) LogProbAt(it *seq.Iter, target int) float64 {
	if it.Covar(0) > 0 {
		return f.alt.LogProb(target)
	}

	return f.DiscreteTransition.LogProb(target)
}

// TestNonHomogeneous_ForwardBackwardAgree verifies the iterator
// positioning contract: with covariate-driven transitions the backward
// sweep must evaluate each transition at the entered position, or the
// two log-likelihoods diverge.
func TestNonHomogeneous_ForwardBackwardAgree(t *testing.T) {
	mk := func(state int, a, b float64) *dist.DiscreteTransition {
		d := dist.NewDiscreteTransition(2, state, []int{0, 1})
		require.NoError(t, d.SetParams(dist.NewParams(a, b)))

		return d
	}

	t0 := &flipTransition{DiscreteTransition: mk(0, 0.9, 0.1), alt: mk(0, 0.3, 0.7)}
	t1 := &flipTransition{DiscreteTransition: mk(1, 0.2, 0.8), alt: mk(1, 0.6, 0.4)}

	tt, err := tables.NewNonHomogeneousTransitions(t0, t1)
	require.NoError(t, err)

	e0 := dist.NewDiscreteEmission(0, 0)
	require.NoError(t, e0.SetParams(dist.NewParams(0.5, 0.5)))
	e1 := dist.NewDiscreteEmission(1, 0)
	require.NoError(t, e1.SetParams(dist.NewParams(0.1, 0.9)))
	et, err := tables.NewEmissions(e0, e1)
	require.NoError(t, err)

	engine, err := hmm.New(tt, et)
	require.NoError(t, err)
	require.NoError(t, engine.SetInitialProbs([]float64{0.5, 0.5}))

	s, err := seq.New(5, []int{1}, []float64{0, 1, 1, 0, 1},
		[]int{1}, []float64{0, 1, 0, 1, 1})
	require.NoError(t, err)

	fw := make([]float64, 2*s.Len())
	bk := make([]float64, 2*s.Len())

	fll, err := engine.Forward(s.Iter(), fw)
	require.NoError(t, err)
	bll, err := engine.Backward(s.Iter(), bk)
	require.NoError(t, err)

	require.InDelta(t, fll, bll, 1e-9*math.Abs(fll))
}

// TestFault_FrameStack verifies dimension errors unwind as a *Fault
// with the offending frame recorded.
func TestFault_FrameStack(t *testing.T) {
	m := newCoinModel(t)
	s := coinSequence(t)

	_, err := m.engine.Forward(s.Iter(), make([]float64, 3))
	require.ErrorIs(t, err, hmm.ErrDimensionMismatch)

	var fault *hmm.Fault
	require.ErrorAs(t, err, &fault)
	require.Equal(t, []string{"forward"}, fault.Frames)

	_, err = m.engine.Viterbi(s.Iter(), make([]int, 2))
	require.ErrorAs(t, err, &fault)
	require.Equal(t, []string{"viterbi"}, fault.Frames)
}

// TestSetInitialProbs_ZeroBecomesNegInf checks the log conversion at
// the input boundary.
func TestSetInitialProbs_ZeroBecomesNegInf(t *testing.T) {
	m := newCoinModel(t)

	require.ErrorIs(t, m.engine.SetInitialProbs([]float64{1}), hmm.ErrDimensionMismatch)
	require.NoError(t, m.engine.SetInitialProbs([]float64{1, 0}))

	// A forward sweep from the zero-weight state contributes nothing:
	// the first column's B entry must be −∞.
	s := coinSequence(t)
	fw := make([]float64, 2*s.Len())
	_, err := m.engine.Forward(s.Iter(), fw)
	require.NoError(t, err)
	require.True(t, math.IsInf(fw[1], -1))
}
