package dist

import "github.com/coregenomics/qhmm/seq"

// Option names shared across the reference families. Unknown names are
// rejected by SetOption (returns false) without mutating state.
const (
	// OptOffset shifts observations before evaluation: the gamma and
	// scaled negative binomial families add it to each observation; for
	// the discrete emission it is the first symbol of the alphabet.
	OptOffset = "offset"

	// OptMaxIter bounds Newton iterations in M-steps (must be > 0).
	OptMaxIter = "maxIter"

	// OptTolerance is the Newton convergence threshold (must be ≥ 0).
	OptTolerance = "tolerance"

	// OptTblSize sizes the memoised log-probability table over discrete
	// support (scaled negative binomial).
	OptTblSize = "tblSize"

	// OptMomInit toggles the method-of-moments dispersion initialiser
	// (scaled negative binomial).
	OptMomInit = "momInit"

	// OptScale is the per-instance dispersion scale factor (must be > 0,
	// scaled negative binomial only).
	OptScale = "scale"
)

// Emission is the contract every emission family satisfies. An instance
// is parameterised by (stateID, slotID) and owns its parameters plus any
// precomputed caches.
type Emission interface {
	// StateID returns the state this instance belongs to.
	StateID() int

	// SlotID returns the emission slot this instance reads.
	SlotID() int

	// ValidParams reports whether p satisfies the family's predicate.
	ValidParams(p Params) bool

	// Params returns a fresh copy of the current parameters.
	Params() Params

	// SetParams replaces the parameters after validation; it returns
	// ErrInvalidParams (wrapped with detail) on rejection.
	SetParams(p Params) error

	// Option returns the named option value, reporting false on unknown
	// names.
	Option(name string) (float64, bool)

	// SetOption sets the named option, reporting false on unknown names
	// or rejected values without mutating state.
	SetOption(name string, value float64) bool

	// LogProb returns the log-probability of the current position of it
	// under this instance's slot. −∞ is a valid result.
	LogProb(it *seq.Iter) float64

	// UpdateParams runs the M-step for the sharing group this instance
	// leads: gather posterior-weighted sufficient statistics across all
	// members, estimate, write into the receiver, propagate to peers.
	UpdateParams(seqs Sequences, group []Emission) error
}

// Transition is the contract every transition family satisfies. An
// instance owns the outgoing distribution of one source state over a
// restricted set of target states.
type Transition interface {
	// NStates returns the total number of states in the model.
	NStates() int

	// StateID returns the source state this instance belongs to.
	StateID() int

	// Targets returns the target state indices this instance may reach.
	// The returned slice is owned by the instance; do not mutate.
	Targets() []int

	ValidParams(p Params) bool
	Params() Params
	SetParams(p Params) error
	Option(name string) (float64, bool)
	SetOption(name string, value float64) bool

	// LogProb returns the log transition probability to target,
	// independent of position (homogeneous form). Cells outside the
	// target set are −∞.
	LogProb(target int) float64

	// LogProbAt returns the log transition probability to target given
	// the covariates at the current position of it (non-homogeneous
	// form). Homogeneous families ignore the iterator.
	LogProbAt(it *seq.Iter, target int) float64

	// UpdateParams runs the M-step for the sharing group this instance
	// leads; see Emission.UpdateParams.
	UpdateParams(seqs Sequences, group []Transition) error
}

// PosteriorIter yields, sequence by sequence, the state-posterior
// weights of one (state, slot) pair together with an iterator over that
// sequence. The implementation owns the posterior memory; callers must
// not retain slices across Next.
//
// Usage:
//
//	pit := seqs.PosteriorIter(stateID, slotID)
//	for pit.Next() {
//	    post := pit.Posterior() // len == sequence length
//	    it := pit.Iter()
//	    it.ResetFirst()
//	    for j := 0; j < it.Len(); j++ {
//	        _ = post[j]
//	        it.Next()
//	    }
//	}
type PosteriorIter interface {
	// Next advances to the next sequence, reporting false when
	// exhausted. It must be called before the first access.
	Next() bool

	// Posterior returns the per-position posterior weights of the
	// current sequence.
	Posterior() []float64

	// Iter returns a cursor over the current sequence.
	Iter() *seq.Iter

	// Reset rewinds to before the first sequence.
	Reset()
}

// TransitionPosteriorIter yields per-position transition posteriors for
// every member of a sharing group. Positions span all sequences; each
// position t covered is a transition *into* t (t ≥ 1).
type TransitionPosteriorIter interface {
	// Next advances to the next covered position, reporting false when
	// exhausted. It must be called before the first access.
	Next() bool

	// Posterior returns ξ for group member gidx and that member's
	// target index tgtIdx at the current position.
	Posterior(gidx, tgtIdx int) float64

	// Reset rewinds to before the first position.
	Reset()
}

// Sequences is the EM statistics protocol: the driver hands this to
// UpdateParams so families can walk posterior-weighted visits without
// knowing how forward/backward matrices are stored.
type Sequences interface {
	// PosteriorIter returns a fresh iterator over the state posteriors
	// of (stateID, slotID) across all training sequences.
	PosteriorIter(stateID, slotID int) PosteriorIter

	// TransitionPosteriorIter returns a fresh iterator over the
	// transition posteriors of every member of group across all
	// training sequences.
	TransitionPosteriorIter(group []Transition) TransitionPosteriorIter
}
