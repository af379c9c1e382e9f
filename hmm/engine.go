package hmm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/coregenomics/qhmm/logsum"
	"github.com/coregenomics/qhmm/seq"
	"github.com/coregenomics/qhmm/tables"
)

// Engine runs the log-domain DP recurrences of one HMM. It owns the log
// initial distribution and borrows the function tables; the caller owns
// all forward/backward/posterior storage.
type Engine struct {
	n     int
	trans tables.TransitionTable
	emit  tables.EmissionTable

	initLog []float64

	// Sparse support lists; nil selects the dense recurrences.
	prevStates [][]int
	nextStates [][]int

	uniform func() float64
	log     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand installs the pseudo-random source consumed by the stochastic
// backtrace. Panics on nil, as does every option fed a nonsensical
// value (programmer error).
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r == nil {
			panic("hmm: WithRand requires a non-nil *rand.Rand")
		}
		e.uniform = r.Float64
	}
}

// WithLogger installs a sink for engine diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New builds an engine over the given tables. The initial distribution
// starts uniform; override it with SetInitialProbs.
func New(trans tables.TransitionTable, emit tables.EmissionTable, opts ...Option) (*Engine, error) {
	if trans == nil || emit == nil {
		return nil, ErrNilTable
	}
	if trans.NStates() != emit.NStates() {
		return nil, fmt.Errorf("%w: transitions=%d, emissions=%d",
			ErrTableMismatch, trans.NStates(), emit.NStates())
	}

	n := trans.NStates()
	e := &Engine{
		n:       n,
		trans:   trans,
		emit:    emit,
		initLog: make([]float64, n),
		uniform: rand.New(rand.NewPCG(1, 2)).Float64,
		log:     zerolog.Nop(),
	}
	for i := range e.initLog {
		e.initLog[i] = -math.Log(float64(n))
	}

	for _, opt := range opts {
		opt(e)
	}
	e.RefreshSupport()

	return e, nil
}

// NStates returns the number of states N.
func (e *Engine) NStates() int { return e.n }

// SetInitialProbs stores log p(i) for each state. Zero probabilities
// become −∞.
func (e *Engine) SetInitialProbs(p []float64) error {
	if len(p) != e.n {
		return fmt.Errorf("%w: got %d initial probabilities, want %d", ErrDimensionMismatch, len(p), e.n)
	}

	for i, v := range p {
		e.initLog[i] = math.Log(v)
	}

	return nil
}

// RefreshSupport re-derives the sparse support lists from the
// transition table. Call it after refreshing a homogeneous table whose
// parameters changed; the EM driver does so automatically.
func (e *Engine) RefreshSupport() {
	e.prevStates, e.nextStates = nil, nil

	if !e.trans.Sparse() {
		return
	}
	if sp, ok := e.trans.(tables.SparseSupport); ok {
		e.prevStates = sp.PreviousStates()
		e.nextStates = sp.NextStates()
		e.log.Debug().Int("states", e.n).Msg("sparse inner recurrences selected")
	}
}

// innerFwd is the forward inner recurrence for target state l:
// logsum over valid sources k of prev[k] + log a(k→l) at the current
// position of it.
func (e *Engine) innerFwd(prev []float64, l int, it *seq.Iter, ls *logsum.LogSum) float64 {
	ls.Clear()
	if e.prevStates != nil {
		for _, k := range e.prevStates[l] {
			ls.Store(prev[k] + e.trans.LogProb(it, k, l))
		}
	} else {
		for k := 0; k < e.n; k++ {
			ls.Store(prev[k] + e.trans.LogProb(it, k, l))
		}
	}

	return ls.Compute()
}

// innerBck is the backward inner recurrence for source state k, with it
// positioned at t+1 (the symbol being entered): logsum over valid
// targets l of log a(k→l) + log e_l + next[l].
func (e *Engine) innerBck(next []float64, k int, it *seq.Iter, ls *logsum.LogSum) float64 {
	ls.Clear()
	if e.nextStates != nil {
		for _, l := range e.nextStates[k] {
			ls.Store(e.trans.LogProb(it, k, l) + e.emit.LogProb(it, l) + next[l])
		}
	} else {
		for l := 0; l < e.n; l++ {
			ls.Store(e.trans.LogProb(it, k, l) + e.emit.LogProb(it, l) + next[l])
		}
	}

	return ls.Compute()
}

// checkMatrix validates a caller-owned N×L matrix length.
func (e *Engine) checkMatrix(name string, m []float64, length int) error {
	if len(m) != e.n*length {
		return fmt.Errorf("%w: %s matrix len=%d, want %d×%d", ErrDimensionMismatch, name, len(m), e.n, length)
	}

	return nil
}

// Forward fills the column-major N×L matrix m with forward log
// probabilities and returns the sequence log-likelihood.
//
// Column 0 is log e_k(x₀) + log π_k; column t adds the inner recurrence
// over column t−1. The log-likelihood is the log-sum-exp of the last
// column.
func (e *Engine) Forward(it *seq.Iter, m []float64) (float64, error) {
	length := it.Len()
	if err := e.checkMatrix("forward", m, length); err != nil {
		return 0, pushFrame(err, "forward")
	}

	ls := logsum.New(e.n)
	it.ResetFirst()

	// Border conditions at position 0: log f_k(0) = log e_k(0) + log π_k.
	col := m[:e.n]
	for k := 0; k < e.n; k++ {
		col[k] = e.emit.LogProb(it, k) + e.initLog[k]
	}

	// Inner cells.
	for t := 1; it.Next(); t++ {
		prev := m[(t-1)*e.n : t*e.n]
		col = m[t*e.n : (t+1)*e.n]
		for l := 0; l < e.n; l++ {
			col[l] = e.emit.LogProb(it, l) + e.innerFwd(prev, l, it, ls)
		}
	}

	// Log-likelihood over the last column.
	ls.Clear()
	for k := 0; k < e.n; k++ {
		ls.Store(m[(length-1)*e.n+k])
	}
	loglik := ls.Compute()
	if math.IsNaN(loglik) {
		return 0, pushFrame(fmt.Errorf("%w: forward log-likelihood is NaN", ErrNumericalFailure), "forward")
	}

	return loglik, nil
}

// Backward fills the column-major N×L matrix m with backward log
// probabilities and returns the sequence log-likelihood recomputed from
// position 0 (a cross-check against Forward).
//
// While filling column t the iterator is held at position t+1, so the
// inner recurrence reads the transition and emission of the symbol
// being entered.
func (e *Engine) Backward(it *seq.Iter, m []float64) (float64, error) {
	length := it.Len()
	if err := e.checkMatrix("backward", m, length); err != nil {
		return 0, pushFrame(err, "backward")
	}

	ls := logsum.New(e.n)

	// Border conditions at position L−1: log b_k = log 1 = 0.
	col := m[(length-1)*e.n:]
	for k := 0; k < e.n; k++ {
		col[k] = 0
	}

	// Inner cells; the iterator stays one position ahead of the column.
	it.ResetLast()
	for t := length - 2; t >= 0; t-- {
		next := m[(t+1)*e.n : (t+2)*e.n]
		col = m[t*e.n : (t+1)*e.n]
		for k := 0; k < e.n; k++ {
			col[k] = e.innerBck(next, k, it, ls)
		}
		if t > 0 {
			it.Prev()
		}
	}

	// Log-likelihood: logsum over log π_k + log e_k(0) + b_k(0).
	ls.Clear()
	it.ResetFirst()
	for k := 0; k < e.n; k++ {
		ls.Store(e.initLog[k] + e.emit.LogProb(it, k) + m[k])
	}
	loglik := ls.Compute()
	if math.IsNaN(loglik) {
		return 0, pushFrame(fmt.Errorf("%w: backward log-likelihood is NaN", ErrNumericalFailure), "backward")
	}

	return loglik, nil
}
