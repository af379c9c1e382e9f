package hmm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilTable indicates a nil transition or emission table.
	ErrNilTable = errors.New("hmm: transition and emission tables are required")

	// ErrTableMismatch indicates transition and emission tables that
	// disagree on the number of states.
	ErrTableMismatch = errors.New("hmm: transition and emission tables disagree on state count")

	// ErrDimensionMismatch indicates a caller-owned matrix, path or
	// probability vector of the wrong length.
	ErrDimensionMismatch = errors.New("hmm: dimension mismatch")

	// ErrNumericalFailure indicates a non-finite log-likelihood or a
	// forward/backward disagreement beyond tolerance.
	ErrNumericalFailure = errors.New("hmm: numerical failure")

	// ErrNoSequences indicates a trainer built without sequences.
	ErrNoSequences = errors.New("hmm: at least one training sequence is required")
)

// Fault is an engine failure annotated with the stack of DP frames it
// unwound through, innermost first ("forward", "backward", "viterbi",
// "stochastic_backtrace", "em").
type Fault struct {
	Frames []string
	Err    error
}

// Error renders the underlying error with its frame stack.
func (f *Fault) Error() string {
	return fmt.Sprintf("%v [%s]", f.Err, strings.Join(f.Frames, " < "))
}

// Unwrap exposes the underlying error to errors.Is / errors.As.
func (f *Fault) Unwrap() error { return f.Err }

// pushFrame annotates err with a DP frame, growing the stack when err
// already is a Fault. A nil err passes through untouched.
func pushFrame(err error, frame string) error {
	if err == nil {
		return nil
	}

	var f *Fault
	if errors.As(err, &f) {
		f.Frames = append(f.Frames, frame)

		return err
	}

	return &Fault{Frames: []string{frame}, Err: err}
}
