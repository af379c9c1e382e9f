// Package tables aggregates per-state distribution instances into the
// callable matrices the DP engine consumes.
//
// Transition tables:
//
//   - HomogeneousTransitions materialises an N×N matrix of log
//     transition probabilities once (and again on Refresh after any
//     parameter change); lookups ignore the iterator. It also derives
//     the sparsity structure: Sparse() reports whether at least half of
//     the cells are −∞, and PreviousStates/NextStates list, per state,
//     the valid sources and destinations for the sparse inner
//     recurrences.
//   - NonHomogeneousTransitions delegates every lookup to the source
//     state's distribution with the iterator, so transition
//     probabilities may depend on per-position covariates. It is never
//     reported sparse: a covariate-driven table has no static support.
//
// Emission tables:
//
//   - Emissions evaluates state i's single slot at the current position.
//   - MultiEmissions sums log-probabilities across all slots of state i,
//     each slot with its own distribution.
//
// Lifetime: a table owns its distribution instances; sharing groups may
// span several tables, but a table must not be swept concurrently with
// an M-step that mutates its members (EM is a barrier).
package tables
