// Package dist defines the distribution plug-in contract of the HMM:
// the Params value, the Emission and Transition interfaces every family
// satisfies, the per-family option protocol, and the EM
// sufficient-statistics protocol through which any family participates
// in Baum–Welch re-estimation across a parameter-sharing group.
//
// Contract overview:
//
//   - Params carries an ordered list of real parameters plus a parallel
//     fixed mask. Each family defines its own arity and validity
//     predicate; SetParams rejects invalid vectors, Params() returns a
//     fresh copy.
//   - Options are a fixed, family-specific name→scalar map addressed by
//     string keys (OptOffset, OptMaxIter, OptTolerance, OptTblSize,
//     OptMomInit, OptScale). SetOption reports false on unknown names
//     without mutating state.
//   - UpdateParams implements the M-step: the called instance gathers
//     posterior-weighted sufficient statistics across every member of
//     its sharing group (via the Sequences protocol), estimates new
//     parameters, writes them into itself, then propagates identical
//     parameter state to the other members.
//
// Sharing groups:
//
//	A group is a set of instances (across states and slots) constrained
//	to hold identical parameters at all times. Groups are disjoint;
//	a group of size one receives a single-member M-step. After any
//	UpdateParams on one member, Params() on every other member returns
//	an element-wise identical vector.
//
// Reference families:
//
//   - DiscreteEmission  — probability vector over {offset … offset+K−1}.
//   - DiscreteTransition — tied-probability transitions over a
//     restricted target set; cells outside the set stay at −∞.
//   - Gamma            — (shape, scale) with Newton shape updates over
//     digamma/trigamma.
//   - NegBinomialScaled — shared (mean, dispersion) with a per-state
//     scale factor on dispersion; Newton dispersion estimation with
//     boundary backtracking and optional method-of-moments start.
//
// Numerical conventions: natural logs, log 0 = −∞. M-step failures
// (non-finite or out-of-range candidates) are logged, the previous
// parameters are retained, and EM continues — they are never fatal.
package dist
