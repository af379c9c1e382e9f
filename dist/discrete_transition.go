package dist

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/coregenomics/qhmm/seq"
)

// probEpsilon is the tolerance for probability-vector sum checks on
// transition parameters, which arrive normalised only up to rounding.
const probEpsilon = 1e-9

// DiscreteTransition is the outgoing transition distribution of one
// source state over a restricted target set. Cells outside the target
// set are permanently −∞, which is what makes left-to-right and other
// constrained topologies sparse.
type DiscreteTransition struct {
	nStates int
	stateID int
	targets []int

	logProbs []float64 // length nStates; −∞ outside targets
	fixed    bool

	log zerolog.Logger
}

// NewDiscreteTransition returns an instance whose target cells start
// equi-probable and whose remaining cells are −∞.
func NewDiscreteTransition(nStates, stateID int, targets []int) *DiscreteTransition {
	t := &DiscreteTransition{
		nStates:  nStates,
		stateID:  stateID,
		targets:  append([]int(nil), targets...),
		logProbs: make([]float64, nStates),
		log:      zerolog.Nop(),
	}

	for i := range t.logProbs {
		t.logProbs[i] = math.Inf(-1)
	}
	lp := -math.Log(float64(len(targets)))
	for _, tgt := range t.targets {
		t.logProbs[tgt] = lp
	}

	return t
}

// SetLogger installs a sink for M-step diagnostics.
func (t *DiscreteTransition) SetLogger(l zerolog.Logger) { t.log = l }

// NStates returns the total number of states.
func (t *DiscreteTransition) NStates() int { return t.nStates }

// StateID returns the source state.
func (t *DiscreteTransition) StateID() int { return t.stateID }

// Targets returns the reachable target states.
func (t *DiscreteTransition) Targets() []int { return t.targets }

// ValidParams requires one probability per target summing to 1 within
// probEpsilon.
func (t *DiscreteTransition) ValidParams(p Params) bool {
	if p.Len() != len(t.targets) {
		return false
	}

	sum := 0.0
	for i := 0; i < p.Len(); i++ {
		sum += p.At(i)
	}

	return math.Abs(sum-1.0) <= probEpsilon
}

// Params returns the probabilities of the target cells, in target order.
func (t *DiscreteTransition) Params() Params {
	probs := make([]float64, len(t.targets))
	for i, tgt := range t.targets {
		probs[i] = math.Exp(t.logProbs[tgt])
	}
	p := NewParams(probs...)
	if t.fixed {
		for i := 0; i < p.Len(); i++ {
			p.SetFixed(i, true)
		}
	}

	return p
}

// SetParams replaces the target-cell probabilities. Probabilities equal
// to zero become −∞ cells.
func (t *DiscreteTransition) SetParams(p Params) error {
	if !t.ValidParams(p) {
		return fmt.Errorf("%w: discrete transition needs %d probabilities summing to 1", ErrInvalidParams, len(t.targets))
	}

	for i, tgt := range t.targets {
		t.logProbs[tgt] = math.Log(p.At(i))
	}
	t.fixed = p.AnyFixed()

	return nil
}

// Option reports false for all names: the family has no options.
func (t *DiscreteTransition) Option(string) (float64, bool) { return 0, false }

// SetOption reports false for all names: the family has no options.
func (t *DiscreteTransition) SetOption(string, float64) bool { return false }

// LogProb returns the cached log transition probability to target.
func (t *DiscreteTransition) LogProb(target int) float64 {
	return t.logProbs[target]
}

// LogProbAt ignores the iterator: the family is homogeneous.
func (t *DiscreteTransition) LogProbAt(_ *seq.Iter, target int) float64 {
	return t.logProbs[target]
}

// UpdateParams re-estimates target probabilities from expected
// transition counts summed over the group's posterior iterator, then
// propagates identical log-probabilities to the peers.
func (t *DiscreteTransition) UpdateParams(seqs Sequences, group []Transition) error {
	if t.fixed {
		return nil
	}
	for _, member := range group {
		if _, ok := member.(*DiscreteTransition); !ok {
			return fmt.Errorf("%w: %T in discrete transition group", ErrHeterogeneousGroup, member)
		}
	}

	expected := make([]float64, len(t.targets))

	tit := seqs.TransitionPosteriorIter(group)
	for tit.Next() {
		for gidx := range group {
			for tgtIdx := range expected {
				expected[tgtIdx] += tit.Posterior(gidx, tgtIdx)
			}
		}
	}

	var normalization float64
	for _, c := range expected {
		normalization += c
	}
	if normalization <= 0 {
		t.log.Warn().Int("state", t.stateID).
			Msg("discrete transition update failed: zero posterior mass (keeping old values)")

		return nil
	}

	for i, tgt := range t.targets {
		t.logProbs[tgt] = math.Log(expected[i] / normalization)
	}

	// Propagate to the group peers, cell by cell in target order.
	for _, member := range group {
		tf := member.(*DiscreteTransition)
		if tf != t {
			for i, tgt := range tf.targets {
				tf.logProbs[tgt] = t.logProbs[t.targets[i]]
			}
		}
	}

	return nil
}
