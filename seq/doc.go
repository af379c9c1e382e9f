// Package seq provides immutable observation sequences and the position
// cursor the inference engine walks during dynamic programming.
//
// A Sequence holds L positions of emission data across S emission slots
// (each slot with its own dimensionality) plus optional covariate data
// across C covariate slots, all stored contiguously per position. The
// layout is position-major: advancing the cursor by one position is a
// single stride addition, and slot access within a position is an offset
// lookup — both constant time.
//
// The Iter cursor supports:
//
//   - ResetFirst / ResetLast — jump to position 0 or L−1.
//   - Next / Prev — move one step; report whether movement occurred.
//   - Emission(slot), EmissionAt(slot, i) — read the current position.
//   - Covar(slot), CovarAt(slot, i) — covariates at the current position.
//   - CovarExt(slot, i, offset) — read a covariate at a relative offset
//     from the cursor without moving it (look-ahead/behind for
//     non-homogeneous transitions).
//
// Invariants:
//
//   - A Sequence is immutable during inference; iterators never write.
//   - After ResetFirst the cursor is at index 0; after ResetLast at L−1.
//   - Out-of-range slot or component access is a programming error and
//     panics via the runtime bounds check.
//
// Errors (sentinel):
//
//   - ErrEmptySequence     — zero-length sequence.
//   - ErrNoSlots           — no emission slots declared.
//   - ErrDimensionMismatch — backing data length disagrees with
//     L × Σ slot dimensions.
package seq
