package dist

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/coregenomics/qhmm/seq"
)

// momCeiling caps the method-of-moments dispersion start value.
const momCeiling = 500.0

// NegBinomialScaled is a negative binomial emission with a per-instance
// scale factor applied to the dispersion:
//
//	mean' = scale · mean
//	dispersion' = scale · dispersion
//
// Instances with different scales can share (mean, dispersion) through
// one M-step group, modelling states with different effective exposures.
//
// Log-PMF at integer x ≥ 0:
//
//	r·s·(log r − log(r+m)) − log Γ(s·r) + x·(log m − log(r+m))
//	  + log Γ(s·r + x) − log Γ(x+1)
//
// The x-independent terms are cached as A1, A2, A3 and values below
// tblSize are memoised.
type NegBinomialScaled struct {
	stateID int
	slotID  int

	mean       float64 // m
	dispersion float64 // r
	scale      float64 // s
	fixed      bool

	offset    float64
	tolerance float64
	maxIter   int
	tblSize   int
	momInit   bool

	// Cache: set by updateLogpTbl; on propagation it is copied verbatim
	// to peers of equal scale and recomputed by peers of other scales.
	a1      float64 // r·s·(log r − log(r+m))
	a2      float64 // log m − log(r+m)
	a3      float64 // log Γ(s·r)
	logpTbl []float64

	log zerolog.Logger
}

// NewNegBinomialScaled returns an instance with mean 1, dispersion 1
// and scale 1.
func NewNegBinomialScaled(stateID, slotID int) *NegBinomialScaled {
	nb := &NegBinomialScaled{
		stateID:    stateID,
		slotID:     slotID,
		mean:       1.0,
		dispersion: 1.0,
		scale:      1.0,
		tolerance:  1e-6,
		maxIter:    100,
		tblSize:    64,
		log:        zerolog.Nop(),
	}
	nb.logpTbl = make([]float64, nb.tblSize)
	nb.updateLogpTbl()

	return nb
}

// SetLogger installs a sink for M-step diagnostics.
func (nb *NegBinomialScaled) SetLogger(l zerolog.Logger) { nb.log = l }

// StateID returns the owning state.
func (nb *NegBinomialScaled) StateID() int { return nb.stateID }

// SlotID returns the emission slot this instance reads.
func (nb *NegBinomialScaled) SlotID() int { return nb.slotID }

// ValidParams requires exactly (mean, dispersion), both > 0.
func (nb *NegBinomialScaled) ValidParams(p Params) bool {
	if p.Len() != 2 {
		return false
	}
	for i := 0; i < p.Len(); i++ {
		if p.At(i) <= 0 {
			return false
		}
	}

	return true
}

// Params returns (mean, dispersion). The scale factor is an option, not
// a parameter: it is fixed per instance and never re-estimated.
func (nb *NegBinomialScaled) Params() Params {
	p := NewParams(nb.mean, nb.dispersion)
	if nb.fixed {
		p.SetFixed(0, true)
		p.SetFixed(1, true)
	}

	return p
}

// SetParams replaces (mean, dispersion) and refreshes the cache.
func (nb *NegBinomialScaled) SetParams(p Params) error {
	if !nb.ValidParams(p) {
		return fmt.Errorf("%w: scaled negative binomial needs (mean, dispersion), both > 0", ErrInvalidParams)
	}

	nb.mean = p.At(0)
	nb.dispersion = p.At(1)
	nb.fixed = p.AnyFixed()
	nb.updateLogpTbl()

	return nil
}

// Option reports the named option value.
func (nb *NegBinomialScaled) Option(name string) (float64, bool) {
	switch name {
	case OptOffset:
		return nb.offset, true
	case OptMaxIter:
		return float64(nb.maxIter), true
	case OptTolerance:
		return nb.tolerance, true
	case OptTblSize:
		return float64(nb.tblSize), true
	case OptMomInit:
		if nb.momInit {
			return 1, true
		}

		return 0, true
	case OptScale:
		return nb.scale, true
	}

	return 0, false
}

// SetOption sets the named option, reporting false on unknown names or
// rejected values. A non-positive tblSize disables the memo table.
func (nb *NegBinomialScaled) SetOption(name string, value float64) bool {
	switch name {
	case OptOffset:
		nb.offset = value

		return true
	case OptMaxIter:
		maxIter := int(value)
		if maxIter <= 0 {
			nb.log.Warn().Int("state", nb.stateID).Int("slot", nb.slotID).
				Msgf("maxIter must be > 0: %d", maxIter)

			return false
		}
		nb.maxIter = maxIter

		return true
	case OptTolerance:
		if value < 0 {
			nb.log.Warn().Int("state", nb.stateID).Int("slot", nb.slotID).
				Msgf("tolerance must be >= 0: %g", value)

			return false
		}
		nb.tolerance = value

		return true
	case OptTblSize:
		tblSize := int(value)
		nb.tblSize = tblSize
		if tblSize <= 0 {
			nb.logpTbl = nil
		} else {
			nb.logpTbl = make([]float64, tblSize)
			nb.updateLogpTbl()
		}

		return true
	case OptMomInit:
		nb.momInit = value != 0

		return true
	case OptScale:
		if value <= 0 {
			nb.log.Warn().Int("state", nb.stateID).Int("slot", nb.slotID).
				Msgf("scale must be > 0: %g", value)

			return false
		}
		nb.scale = value
		nb.updateLogpTbl()

		return true
	}

	return false
}

// LogProb returns the log-PMF at the (integer) observation plus offset,
// from the memo table when the value is below tblSize.
func (nb *NegBinomialScaled) LogProb(it *seq.Iter) float64 {
	x := int(it.Emission(nb.slotID) + nb.offset)
	if x < len(nb.logpTbl) {
		return nb.logpTbl[x]
	}

	return nb.logprob(x)
}

func (nb *NegBinomialScaled) logprob(x int) float64 {
	return nb.a1 - nb.a3 + float64(x)*nb.a2 +
		lgamma(nb.scale*nb.dispersion+float64(x)) - lgamma(float64(x)+1)
}

func (nb *NegBinomialScaled) updateLogpTbl() {
	nb.a1 = nb.dispersion * nb.scale * (math.Log(nb.dispersion) - math.Log(nb.dispersion+nb.mean))
	nb.a2 = math.Log(nb.mean) - math.Log(nb.dispersion+nb.mean)
	nb.a3 = lgamma(nb.scale * nb.dispersion)

	for i := range nb.logpTbl {
		nb.logpTbl[i] = nb.logprob(i)
	}
}

// copyCacheTo copies the cached constants and memo table into the peer.
func (nb *NegBinomialScaled) copyCacheTo(other *NegBinomialScaled) {
	other.a1 = nb.a1
	other.a2 = nb.a2
	other.a3 = nb.a3
	if len(other.logpTbl) != len(nb.logpTbl) {
		other.logpTbl = make([]float64, len(nb.logpTbl))
	}
	copy(other.logpTbl, nb.logpTbl)
}

// UpdateParams runs the scaled-NB M-step across the sharing group. The
// computation reverts to the standard (r, p) parameterisation: r is
// estimated by Newton iteration on f(r)/g(r) over digamma/trigamma
// differences, with backtracking when a step lands at or below zero,
// then p = B / (A_s·r + B) and m = p·r/(1−p).
func (nb *NegBinomialScaled) UpdateParams(seqs Sequences, group []Emission) error {
	if nb.fixed {
		return nil
	}

	members := make([]*NegBinomialScaled, len(group))
	for i, member := range group {
		ef, ok := member.(*NegBinomialScaled)
		if !ok {
			return fmt.Errorf("%w: %T in scaled negative binomial group", ErrHeterogeneousGroup, member)
		}
		members[i] = ef
	}

	// Sufficient statistics: Σ P_zi, Σ P_zi·s_k, Σ P_zi·x.
	var sumPzi, sumPziSj, sumPziXi float64

	for _, ef := range members {
		pit := seqs.PosteriorIter(ef.stateID, ef.slotID)
		for pit.Next() {
			post := pit.Posterior()
			it := pit.Iter()
			it.ResetFirst()
			for j := 0; j < it.Len(); j++ {
				x := float64(int(it.Emission(ef.slotID) + nb.offset))

				sumPzi += post[j]
				sumPziSj += post[j] * ef.scale
				sumPziXi += post[j] * x
				it.Next()
			}
		}
	}
	if sumPzi <= 0 {
		nb.log.Warn().Int("state", nb.stateID).Int("slot", nb.slotID).
			Msg("dispersion update failed: zero posterior mass (keeping old values)")

		return nil
	}

	// 1. Estimate r (dispersion) by Newton iteration.
	rPrev := nb.startValue(seqs, members)
	r := rPrev
	reductionFactor := 2.0

	for i := 0; i < nb.maxIter; i++ {
		r = rPrev - nb.newtonRatio(sumPziSj, sumPziXi, rPrev, seqs, members)

		if isBadValue(r) {
			nb.log.Warn().Int("state", nb.stateID).Int("slot", nb.slotID).
				Msgf("dispersion update failed: %g (keeping old value: %g)", r, nb.dispersion)
			r = nb.dispersion

			break
		}
		if r <= 0 {
			// A huge step overshot below zero. If we came from above the
			// current parameter, restart from a fraction of it; otherwise
			// clamp at the tolerance.
			if rPrev > nb.dispersion {
				restart := nb.dispersion / reductionFactor
				nb.log.Warn().Int("state", nb.stateID).Int("slot", nb.slotID).
					Msgf("dispersion lower bound hit: %g (using %g)", r, restart)
				r = restart
				rPrev = restart
				reductionFactor *= reductionFactor

				continue
			}

			nb.log.Warn().Int("state", nb.stateID).Int("slot", nb.slotID).
				Msgf("dispersion lower bound hit: %g (using %g)", r, nb.tolerance)
			r = nb.tolerance
			rPrev = nb.tolerance

			continue
		}

		change := math.Abs(r - rPrev)
		rPrev = r
		if change <= nb.tolerance {
			break
		}
	}

	if r > shapeCeiling || isBadValue(r) {
		nb.log.Warn().Int("state", nb.stateID).Int("slot", nb.slotID).
			Msgf("dispersion update failed: %g (keeping old value: %g)", r, nb.dispersion)

		return nil
	}

	// 2. Estimate p, then map back to (mean, dispersion).
	p := sumPziXi / (sumPziSj*r + sumPziXi)

	nb.mean = p * r / (1.0 - p)
	nb.dispersion = r
	nb.updateLogpTbl()

	// Propagate to the group peers, cache included. The cached constants
	// depend on the scale, so a peer with a different scale rebuilds its own.
	for _, ef := range members {
		if ef != nb {
			ef.mean = nb.mean
			ef.dispersion = nb.dispersion
			if ef.scale == nb.scale {
				nb.copyCacheTo(ef)
			} else {
				ef.updateLogpTbl()
			}
		}
	}

	return nil
}

// startValue picks the Newton starting point: the current dispersion,
// or — when momInit is set — a scale-weighted average of per-member
// method-of-moments estimates r_k = |mean_k² / (var_k − mean_k)|, capped
// at momCeiling.
func (nb *NegBinomialScaled) startValue(seqs Sequences, members []*NegBinomialScaled) float64 {
	if !nb.momInit {
		return nb.dispersion
	}

	var sumScale, sumEstimates float64

	for _, ef := range members {
		// First pass: posterior-weighted mean of this member's visits.
		var sumPzi, sumPziXi float64
		pit := seqs.PosteriorIter(ef.stateID, ef.slotID)
		for pit.Next() {
			post := pit.Posterior()
			it := pit.Iter()
			it.ResetFirst()
			for j := 0; j < it.Len(); j++ {
				x := float64(int(it.Emission(ef.slotID) + nb.offset))
				sumPzi += post[j]
				sumPziXi += post[j] * x
				it.Next()
			}
		}
		mean := sumPziXi / sumPzi

		// Second pass: posterior-weighted variance.
		var sumPziSqdiff float64
		pit.Reset()
		for pit.Next() {
			post := pit.Posterior()
			it := pit.Iter()
			it.ResetFirst()
			for j := 0; j < it.Len(); j++ {
				x := float64(int(it.Emission(ef.slotID) + nb.offset))
				sumPziSqdiff += post[j] * (x - mean) * (x - mean)
				it.Next()
			}
		}
		variance := sumPziSqdiff / sumPzi

		sumEstimates += math.Abs(mean * mean / (variance - mean))
		sumScale += ef.scale
	}

	est := sumEstimates / sumScale
	if est > momCeiling {
		return momCeiling
	}

	return est
}

// newtonRatio evaluates f(r)/g(r) for one Newton step. As = Σ P_zi·s_k
// and B = Σ P_zi·x are the group sufficient statistics.
func (nb *NegBinomialScaled) newtonRatio(as, b, r float64, seqs Sequences, members []*NegBinomialScaled) float64 {
	constNum := math.Log(as*r) - math.Log(as*r+b)
	constDenom := b / (r * (as*r + b))

	var sumNum, sumDenom float64

	for _, ef := range members {
		pit := seqs.PosteriorIter(ef.stateID, ef.slotID)
		for pit.Next() {
			post := pit.Posterior()
			it := pit.Iter()
			it.ResetFirst()
			for j := 0; j < it.Len(); j++ {
				x := it.Emission(ef.slotID) + nb.offset

				sumNum += post[j] * ef.scale * (digamma(x+ef.scale*r) - digamma(ef.scale*r))
				sumDenom += post[j] * ef.scale * ef.scale * (trigamma(x+ef.scale*r) - trigamma(ef.scale*r))
				it.Next()
			}
		}
	}

	fr := sumNum/as + constNum
	gr := sumDenom/as + constDenom

	return fr / gr
}
