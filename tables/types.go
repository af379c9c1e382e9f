package tables

import (
	"errors"

	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/seq"
)

var (
	// ErrNoStates indicates an empty distribution list.
	ErrNoStates = errors.New("tables: at least one state is required")

	// ErrStateMismatch indicates a distribution whose declared state
	// count disagrees with the table size.
	ErrStateMismatch = errors.New("tables: distribution state count does not match table size")

	// ErrSlotMismatch indicates uneven slot counts across states in a
	// multi-slot emission table.
	ErrSlotMismatch = errors.New("tables: all states must carry the same number of emission slots")
)

// TransitionTable is the engine-facing view of a transition matrix:
// log a(i→j) evaluated at the iterator's current position.
type TransitionTable interface {
	// NStates returns the number of states N.
	NStates() int

	// LogProb returns log a(i→j) at the current position of it.
	LogProb(it *seq.Iter, i, j int) float64

	// Sparse reports whether the sparse inner recurrences apply.
	Sparse() bool

	// Function returns the distribution owning row i.
	Function(i int) dist.Transition
}

// SparseSupport is implemented by transition tables that can enumerate
// their static support, enabling the sparse inner recurrences.
type SparseSupport interface {
	// PreviousStates returns, for each state j, the source states i
	// with log a(i→j) > −∞.
	PreviousStates() [][]int

	// NextStates returns, for each state i, the destination states j
	// with log a(i→j) > −∞.
	NextStates() [][]int
}

// EmissionTable is the engine-facing view of the emission
// probabilities: log e_i(x_t) at the iterator's current position.
type EmissionTable interface {
	// NStates returns the number of states N.
	NStates() int

	// LogProb returns log e_i at the current position of it.
	LogProb(it *seq.Iter, i int) float64
}
