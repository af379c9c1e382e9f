package hmm

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/seq"
)

// defaultTolerance bounds both the forward/backward agreement check and
// the Fit convergence test.
const defaultTolerance = 1e-9

// refresher is satisfied by transition tables with a materialised cache
// (HomogeneousTransitions).
type refresher interface {
	Refresh()
}

// Trainer runs Baum–Welch iterations for one engine over a fixed set of
// training sequences. It owns the forward/backward matrices, the state
// posteriors and the posterior iterators handed to M-steps.
type Trainer struct {
	engine *Engine
	seqs   []*seq.Sequence

	emissionGroups   [][]dist.Emission
	transitionGroups [][]dist.Transition

	tolerance float64
	log       zerolog.Logger

	fw     [][]float64 // per sequence, column-major N×L
	bk     [][]float64
	gamma  [][]float64 // per sequence, state-major N×L
	loglik []float64
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithEmissionGroups declares the emission parameter-sharing groups.
// Groups must be disjoint; every distribution belongs to exactly one.
func WithEmissionGroups(groups ...[]dist.Emission) TrainerOption {
	return func(t *Trainer) {
		t.emissionGroups = groups
	}
}

// WithTransitionGroups declares the transition parameter-sharing
// groups.
func WithTransitionGroups(groups ...[]dist.Transition) TrainerOption {
	return func(t *Trainer) {
		t.transitionGroups = groups
	}
}

// WithTolerance overrides the forward/backward agreement and Fit
// convergence tolerance. Panics on a negative value.
func WithTolerance(tol float64) TrainerOption {
	return func(t *Trainer) {
		if tol < 0 {
			panic("hmm: WithTolerance requires a non-negative value")
		}
		t.tolerance = tol
	}
}

// WithTrainerLogger installs a sink for per-iteration diagnostics.
func WithTrainerLogger(l zerolog.Logger) TrainerOption {
	return func(t *Trainer) {
		t.log = l
	}
}

// NewTrainer builds a trainer over the engine and sequences, allocating
// scratch matrices once up front.
func NewTrainer(engine *Engine, seqs []*seq.Sequence, opts ...TrainerOption) (*Trainer, error) {
	if engine == nil {
		return nil, ErrNilTable
	}
	if len(seqs) == 0 {
		return nil, ErrNoSequences
	}

	t := &Trainer{
		engine:    engine,
		seqs:      seqs,
		tolerance: defaultTolerance,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	n := engine.NStates()
	t.fw = make([][]float64, len(seqs))
	t.bk = make([][]float64, len(seqs))
	t.gamma = make([][]float64, len(seqs))
	t.loglik = make([]float64, len(seqs))
	for i, s := range seqs {
		t.fw[i] = make([]float64, n*s.Len())
		t.bk[i] = make([]float64, n*s.Len())
		t.gamma[i] = make([]float64, n*s.Len())
	}

	return t, nil
}

// Step runs one Baum–Welch iteration: forward/backward per sequence
// (with an agreement check), posterior materialisation, one M-step per
// sharing group, then a transition-cache refresh. It returns the total
// log-likelihood under the pre-step parameters.
func (t *Trainer) Step() (float64, error) {
	total := 0.0

	for i, s := range t.seqs {
		it := s.Iter()

		fll, err := t.engine.Forward(it, t.fw[i])
		if err != nil {
			return 0, pushFrame(err, "em")
		}
		bll, err := t.engine.Backward(it, t.bk[i])
		if err != nil {
			return 0, pushFrame(err, "em")
		}

		if !agree(fll, bll, t.tolerance) {
			return 0, pushFrame(fmt.Errorf("%w: forward %.12g and backward %.12g disagree on sequence %d",
				ErrNumericalFailure, fll, bll, i), "em")
		}

		if err := t.engine.StatePosterior(it, t.fw[i], t.bk[i], t.gamma[i]); err != nil {
			return 0, pushFrame(err, "em")
		}

		t.loglik[i] = fll
		total += fll
	}

	stats := &emSequences{t: t}

	for _, group := range t.emissionGroups {
		if len(group) == 0 {
			continue
		}
		if err := group[0].UpdateParams(stats, group); err != nil {
			return 0, pushFrame(err, "em")
		}
	}

	for _, group := range t.transitionGroups {
		if len(group) == 0 {
			continue
		}
		if err := group[0].UpdateParams(stats, group); err != nil {
			return 0, pushFrame(err, "em")
		}
	}

	// New transition parameters take effect on the next sweep.
	if r, ok := t.engine.trans.(refresher); ok {
		r.Refresh()
	}
	t.engine.RefreshSupport()

	return total, nil
}

// Fit iterates Step until the log-likelihood improves by less than the
// tolerance or maxIter is reached, returning the log-likelihood trace.
// A decrease is logged as a warning but does not stop the fit.
func (t *Trainer) Fit(maxIter int) ([]float64, error) {
	trace := make([]float64, 0, maxIter)

	for i := 0; i < maxIter; i++ {
		ll, err := t.Step()
		if err != nil {
			return trace, err
		}
		t.log.Info().Int("iter", i).Float64("loglik", ll).Msg("em step")

		if len(trace) > 0 {
			prev := trace[len(trace)-1]
			if ll < prev-t.tolerance {
				t.log.Warn().Float64("decrease", prev-ll).Msg("log-likelihood decreased")
			} else if ll-prev < t.tolerance {
				trace = append(trace, ll)
				t.log.Info().Int("iter", i).Msg("em converged")

				break
			}
		}
		trace = append(trace, ll)
	}

	return trace, nil
}

// agree reports whether two log-likelihoods match within relative
// tolerance.
func agree(a, b, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))

	return math.Abs(a-b) <= tol*scale
}
