package dist

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/coregenomics/qhmm/seq"
)

// DiscreteEmission is a probability vector over the integer alphabet
// {offset, offset+1, …, offset+K−1}. Observations outside the alphabet
// have probability zero (log-probability −∞).
type DiscreteEmission struct {
	stateID int
	slotID  int

	offset   float64
	logProbs []float64 // length K; natural logs
	fixed    bool

	log zerolog.Logger
}

// NewDiscreteEmission returns an instance with an empty alphabet; call
// SetParams to install the probability vector before use.
func NewDiscreteEmission(stateID, slotID int) *DiscreteEmission {
	return &DiscreteEmission{
		stateID: stateID,
		slotID:  slotID,
		log:     zerolog.Nop(),
	}
}

// SetLogger installs a sink for M-step diagnostics.
func (d *DiscreteEmission) SetLogger(l zerolog.Logger) { d.log = l }

// StateID returns the owning state.
func (d *DiscreteEmission) StateID() int { return d.stateID }

// SlotID returns the emission slot this instance reads.
func (d *DiscreteEmission) SlotID() int { return d.slotID }

// ValidParams requires at least one probability and an exact sum of 1.
// The sum comparison is deliberately exact: parameter vectors are
// expected to be normalised by construction, and the round-trip
// guarantee (SetParams then Params) preserves them bit for bit.
func (d *DiscreteEmission) ValidParams(p Params) bool {
	if p.Len() == 0 {
		return false
	}

	sum := 0.0
	for i := 0; i < p.Len(); i++ {
		sum += p.At(i)
	}

	return sum == 1.0
}

// Params returns the probability vector over the alphabet.
func (d *DiscreteEmission) Params() Params {
	probs := make([]float64, len(d.logProbs))
	for i, lp := range d.logProbs {
		probs[i] = math.Exp(lp)
	}
	p := NewParams(probs...)
	if d.fixed {
		for i := 0; i < p.Len(); i++ {
			p.SetFixed(i, true)
		}
	}

	return p
}

// SetParams replaces the probability vector; the alphabet size follows
// the vector length.
func (d *DiscreteEmission) SetParams(p Params) error {
	if !d.ValidParams(p) {
		return fmt.Errorf("%w: discrete emission needs a non-empty vector summing to 1", ErrInvalidParams)
	}

	if len(d.logProbs) != p.Len() {
		d.logProbs = make([]float64, p.Len())
	}
	for i := range d.logProbs {
		d.logProbs[i] = math.Log(p.At(i))
	}
	d.fixed = p.AnyFixed()

	return nil
}

// Option reports the named option value.
func (d *DiscreteEmission) Option(name string) (float64, bool) {
	if name == OptOffset {
		return d.offset, true
	}

	return 0, false
}

// SetOption sets the named option, reporting false on unknown names.
func (d *DiscreteEmission) SetOption(name string, value float64) bool {
	if name == OptOffset {
		d.offset = value

		return true
	}

	return false
}

// LogProb returns the cached log-probability of the symbol at the
// current position, or −∞ outside the alphabet.
func (d *DiscreteEmission) LogProb(it *seq.Iter) float64 {
	y := int(it.Emission(d.slotID)) - int(d.offset)
	if y < 0 || y >= len(d.logProbs) {
		return math.Inf(-1)
	}

	return d.logProbs[y]
}

// UpdateParams re-estimates the probability vector from
// posterior-weighted symbol counts gathered across the whole sharing
// group, then propagates the result to the other members.
func (d *DiscreteEmission) UpdateParams(seqs Sequences, group []Emission) error {
	if d.fixed {
		return nil
	}
	if len(d.logProbs) == 0 {
		d.log.Warn().Int("state", d.stateID).Int("slot", d.slotID).
			Msg("discrete emission update skipped: no parameters set")

		return nil
	}

	counts := make([]float64, len(d.logProbs))
	var total float64

	for _, member := range group {
		ef, ok := member.(*DiscreteEmission)
		if !ok {
			return fmt.Errorf("%w: %T in discrete emission group", ErrHeterogeneousGroup, member)
		}

		pit := seqs.PosteriorIter(ef.stateID, ef.slotID)
		for pit.Next() {
			post := pit.Posterior()
			it := pit.Iter()
			it.ResetFirst()
			for j := 0; j < it.Len(); j++ {
				y := int(it.Emission(ef.slotID)) - int(d.offset)
				if y >= 0 && y < len(counts) {
					counts[y] += post[j]
					total += post[j]
				}
				it.Next()
			}
		}
	}

	if total <= 0 {
		d.log.Warn().Int("state", d.stateID).Int("slot", d.slotID).
			Msg("discrete emission update failed: zero posterior mass (keeping old values)")

		return nil
	}

	for i, c := range counts {
		d.logProbs[i] = math.Log(c / total)
	}

	// Propagate identical log-probabilities to the group peers.
	for _, member := range group {
		ef := member.(*DiscreteEmission)
		if ef != d {
			if len(ef.logProbs) != len(d.logProbs) {
				ef.logProbs = make([]float64, len(d.logProbs))
			}
			copy(ef.logProbs, d.logProbs)
		}
	}

	return nil
}
