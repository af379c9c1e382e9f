// Package hmm implements the dynamic-programming engine and the
// Baum–Welch (EM) driver of the library.
//
// Engine:
//
//   - Forward / Backward fill caller-owned N×L log-domain matrices and
//     return the sequence log-likelihood. Matrices are column-major:
//     column t holds the N state values of position t contiguously,
//     because every inner recurrence reads one column at a time.
//   - Viterbi decodes the argmax path with a back-pointer matrix; ties
//     break toward the lowest state index (strict > updates).
//   - StatePosterior, LocalLogLik and TransitionPosterior turn forward
//     and backward matrices into probability-domain posteriors. The
//     state-posterior output transposes to state-major rows so each
//     state's trajectory is contiguous.
//   - StochasticBacktrace samples a state path from the posterior given
//     a forward matrix, renormalising at every step to absorb rounding.
//
// Inner recurrences come in dense and sparse forms. When the transition
// table reports Sparse() and can enumerate its support, the recurrences
// iterate only over the listed valid edges (previous states for the
// forward pass, next states for the backward pass).
//
// EM:
//
//	Trainer runs Baum–Welch iterations over a set of sequences. Each
//	Step runs forward and backward per sequence (aborting if the two
//	log-likelihoods disagree), materialises posterior iterators, and
//	hands every parameter-sharing group to one member's UpdateParams.
//	Homogeneous transition caches are refreshed afterwards. Fit loops
//	Step to convergence, recording the log-likelihood trace and warning
//	when it decreases.
//
// Concurrency: an engine (and its tables) is single-threaded. Distinct
// engines with distinct sequences and matrices may run concurrently.
// Running a DP sweep concurrently with an M-step on the same function
// table is undefined behaviour; EM is a barrier.
//
// Failures inside DP unwind as a *Fault carrying a frame stack
// ("forward", "backward", "viterbi", "stochastic_backtrace", "em") for
// diagnostics; scratch
// memory is released before propagation.
package hmm
