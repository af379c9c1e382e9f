package dist

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/coregenomics/qhmm/seq"
)

// shapeCeiling rejects runaway Newton estimates: shape or dispersion
// values beyond this are treated as an M-step failure and the previous
// parameters are retained.
const shapeCeiling = 1000.0

// Gamma is a gamma emission with parameters (shape α, scale θ), both
// strictly positive. The normalising constant −log Γ(α) − α·log θ is
// cached and refreshed on every parameter change.
type Gamma struct {
	stateID int
	slotID  int

	shape float64
	scale float64
	fixed bool

	offset    float64
	tolerance float64
	maxIter   int

	a float64 // −log Γ(shape) − shape·log(scale)

	log zerolog.Logger
}

// NewGamma returns an instance with shape 1 and scale 2.
func NewGamma(stateID, slotID int) *Gamma {
	g := &Gamma{
		stateID:   stateID,
		slotID:    slotID,
		shape:     1.0,
		scale:     2.0,
		tolerance: 1e-6,
		maxIter:   100,
		log:       zerolog.Nop(),
	}
	g.updateConstants()

	return g
}

// SetLogger installs a sink for M-step diagnostics.
func (g *Gamma) SetLogger(l zerolog.Logger) { g.log = l }

// StateID returns the owning state.
func (g *Gamma) StateID() int { return g.stateID }

// SlotID returns the emission slot this instance reads.
func (g *Gamma) SlotID() int { return g.slotID }

// ValidParams requires exactly (shape, scale), both > 0.
func (g *Gamma) ValidParams(p Params) bool {
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

// Params returns (shape, scale).
func (g *Gamma) Params() Params {
	p := NewParams(g.shape, g.scale)
	if g.fixed {
		p.SetFixed(0, true)
		p.SetFixed(1, true)
	}

	return p
}

// SetParams replaces (shape, scale) and refreshes the cached constant.
func (g *Gamma) SetParams(p Params) error {
	if !g.ValidParams(p) {
		return fmt.Errorf("%w: gamma needs (shape, scale), both > 0", ErrInvalidParams)
	}

	g.shape = p.At(0)
	g.scale = p.At(1)
	g.fixed = p.AnyFixed()
	g.updateConstants()

	return nil
}

// Option reports the named option value.
func (g *Gamma) Option(name string) (float64, bool) {
	switch name {
	case OptOffset:
		return g.offset, true
	case OptMaxIter:
		return float64(g.maxIter), true
	case OptTolerance:
		return g.tolerance, true
	}

	return 0, false
}

// SetOption sets the named option, reporting false on unknown names or
// rejected values.
func (g *Gamma) SetOption(name string, value float64) bool {
	switch name {
	case OptOffset:
		g.offset = value

		return true
	case OptMaxIter:
		maxIter := int(value)
		if maxIter <= 0 {
			g.log.Warn().Int("state", g.stateID).Int("slot", g.slotID).
				Msgf("maxIter must be > 0: %d", maxIter)

			return false
		}
		g.maxIter = maxIter

		return true
	case OptTolerance:
		if value < 0 {
			g.log.Warn().Int("state", g.stateID).Int("slot", g.slotID).
				Msgf("tolerance must be >= 0: %g", value)

			return false
		}
		g.tolerance = value

		return true
	}

	return false
}

// LogProb evaluates the log-density at the observation plus offset:
// A + (α−1)·log x − x/θ.
func (g *Gamma) LogProb(it *seq.Iter) float64 {
	x := it.Emission(g.slotID) + g.offset

	return g.a + (g.shape-1)*math.Log(x) - x/g.scale
}

// UpdateParams runs the gamma M-step across the sharing group:
// a closed-form moment start for the shape followed by Newton refinement
// over digamma/trigamma, then scale = mean / shape. Candidates that are
// non-finite, non-positive, or above shapeCeiling are rejected and the
// previous parameters retained.
func (g *Gamma) UpdateParams(seqs Sequences, group []Emission) error {
	if g.fixed {
		return nil
	}

	// Sufficient statistics, posterior-weighted across the whole group.
	var sumPzi, sumPziXi, sumPziLogXi float64

	for _, member := range group {
		ef, ok := member.(*Gamma)
		if !ok {
			return fmt.Errorf("%w: %T in gamma group", ErrHeterogeneousGroup, member)
		}

		pit := seqs.PosteriorIter(ef.stateID, ef.slotID)
		for pit.Next() {
			post := pit.Posterior()
			it := pit.Iter()
			it.ResetFirst()
			for j := 0; j < it.Len(); j++ {
				x := it.Emission(ef.slotID) + g.offset

				sumPzi += post[j]
				sumPziXi += post[j] * x
				sumPziLogXi += post[j] * math.Log(x)
				it.Next()
			}
		}
	}

	mean := sumPziXi / sumPzi
	s := math.Log(mean) - sumPziLogXi/sumPzi

	// Closed-form start for the shape.
	shape := (3 - s + math.Sqrt((s-3)*(s-3)+24*s)) / (12 * s)
	if isBadValue(shape) || shape <= 0 {
		g.log.Warn().Int("state", g.stateID).Int("slot", g.slotID).
			Msgf("initial shape guess failed: %g (starting with old value: %g)", shape, g.shape)
		shape = g.shape
	}

	// Newton refinement: α ← α − (log α − ψ(α) − s) / (1/α − ψ′(α)).
	for i := 0; i < g.maxIter; i++ {
		next := shape - (math.Log(shape)-digamma(shape)-s)/(1/shape-trigamma(shape))
		if isBadValue(next) || next <= 0 {
			g.log.Warn().Int("state", g.stateID).Int("slot", g.slotID).
				Msgf("shape update failed: %g (keeping estimate: %g)", next, shape)

			break
		}

		change := math.Abs(next - shape)
		shape = next
		if change < g.tolerance {
			break
		}
	}

	if isBadValue(shape) || shape > shapeCeiling {
		g.log.Warn().Int("state", g.stateID).Int("slot", g.slotID).
			Msgf("shape update failed: %g (keeping old value: %g)", shape, g.shape)

		return nil
	}

	g.shape = shape
	g.scale = mean / shape
	g.updateConstants()

	// Propagate to the group peers.
	for _, member := range group {
		ef := member.(*Gamma)
		if ef != g {
			ef.shape = g.shape
			ef.scale = g.scale
			ef.updateConstants()
		}
	}

	return nil
}

func (g *Gamma) updateConstants() {
	g.a = -lgamma(g.shape) - g.shape*math.Log(g.scale)
}
