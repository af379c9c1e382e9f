package tables

import (
	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/seq"
)

// Emissions evaluates one single-slot distribution per state.
type Emissions struct {
	n     int
	funcs []dist.Emission
}

// NewEmissions builds a single-slot emission table over one
// distribution per state, in state order.
func NewEmissions(funcs ...dist.Emission) (*Emissions, error) {
	if len(funcs) == 0 {
		return nil, ErrNoStates
	}

	return &Emissions{n: len(funcs), funcs: funcs}, nil
}

// NStates returns the number of states N.
func (e *Emissions) NStates() int { return e.n }

// Function returns the distribution owning state i.
func (e *Emissions) Function(i int) dist.Emission { return e.funcs[i] }

// LogProb returns log e_i at the current position of it.
func (e *Emissions) LogProb(it *seq.Iter, i int) float64 {
	return e.funcs[i].LogProb(it)
}

// MultiEmissions sums log-probabilities across all emission slots of a
// state, each slot with its own distribution.
type MultiEmissions struct {
	n     int
	slots int
	funcs [][]dist.Emission // funcs[state][slot]
}

// NewMultiEmissions builds a multi-slot emission table. Every state
// must carry the same number of slot distributions, in slot order.
func NewMultiEmissions(funcs ...[]dist.Emission) (*MultiEmissions, error) {
	if len(funcs) == 0 || len(funcs[0]) == 0 {
		return nil, ErrNoStates
	}
	slots := len(funcs[0])
	for _, row := range funcs {
		if len(row) != slots {
			return nil, ErrSlotMismatch
		}
	}

	return &MultiEmissions{n: len(funcs), slots: slots, funcs: funcs}, nil
}

// NStates returns the number of states N.
func (e *MultiEmissions) NStates() int { return e.n }

// NSlots returns the number of emission slots per state.
func (e *MultiEmissions) NSlots() int { return e.slots }

// Function returns the distribution of (state, slot).
func (e *MultiEmissions) Function(state, slot int) dist.Emission {
	return e.funcs[state][slot]
}

// LogProb returns Σ over slots of log e_{i,slot} at the current
// position of it.
func (e *MultiEmissions) LogProb(it *seq.Iter, i int) float64 {
	logProb := 0.0
	for slot := 0; slot < e.slots; slot++ {
		logProb += e.funcs[i][slot].LogProb(it)
	}

	return logProb
}
