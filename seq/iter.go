package seq

// Iter is a position cursor over a Sequence. All data accessors read the
// current position; Next/Prev move one step and report whether movement
// occurred. Iterators are cheap; each concurrent consumer takes its own.
type Iter struct {
	seq *Sequence
	pos int
}

// ResetFirst moves the cursor to position 0.
func (it *Iter) ResetFirst() { it.pos = 0 }

// ResetLast moves the cursor to position L−1.
func (it *Iter) ResetLast() { it.pos = it.seq.length - 1 }

// Next advances one position. It reports false (without moving) when the
// cursor is already at the last position.
func (it *Iter) Next() bool {
	if it.pos == it.seq.length-1 {
		return false
	}
	it.pos++

	return true
}

// Prev steps back one position. It reports false (without moving) when
// the cursor is already at position 0.
func (it *Iter) Prev() bool {
	if it.pos == 0 {
		return false
	}
	it.pos--

	return true
}

// Index returns the current position.
func (it *Iter) Index() int { return it.pos }

// Len returns the sequence length L.
func (it *Iter) Len() int { return it.seq.length }

// Emission returns component 0 of the given emission slot at the current
// position.
func (it *Iter) Emission(slot int) float64 {
	return it.seq.emissions[it.pos*it.seq.estep+it.seq.eoffsets[slot]]
}

// EmissionAt returns component i of the given emission slot at the
// current position.
func (it *Iter) EmissionAt(slot, i int) float64 {
	return it.seq.emissions[it.pos*it.seq.estep+it.seq.eoffsets[slot]+i]
}

// Covar returns component 0 of the given covariate slot at the current
// position. Panics when the sequence has no covariates.
func (it *Iter) Covar(slot int) float64 {
	return it.seq.covars[it.pos*it.seq.cstep+it.seq.coffsets[slot]]
}

// CovarAt returns component i of the given covariate slot at the current
// position.
func (it *Iter) CovarAt(slot, i int) float64 {
	return it.seq.covars[it.pos*it.seq.cstep+it.seq.coffsets[slot]+i]
}

// CovarExt returns component i of the given covariate slot at a relative
// offset from the current position, without moving the cursor. The
// resolved position must lie within [0, L).
func (it *Iter) CovarExt(slot, i, offset int) float64 {
	return it.seq.covars[(it.pos+offset)*it.seq.cstep+it.seq.coffsets[slot]+i]
}
