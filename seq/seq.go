package seq

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySequence indicates a sequence of length zero.
	ErrEmptySequence = errors.New("seq: sequence length must be positive")

	// ErrNoSlots indicates that no emission slots were declared.
	ErrNoSlots = errors.New("seq: at least one emission slot is required")

	// ErrDimensionMismatch indicates that a backing slice length does not
	// match length × Σ slot dimensions.
	ErrDimensionMismatch = errors.New("seq: data length does not match declared dimensions")
)

// Sequence is an immutable run of L observation positions. Emission data
// is position-major: position t occupies emissions[t*estep : (t+1)*estep],
// and slot s starts at offset eoffsets[s] within that block. Covariates
// follow the same layout in their own backing slice and may be absent.
type Sequence struct {
	length int

	estep     int
	eoffsets  []int
	emissions []float64

	cstep   int
	coffsets []int
	covars  []float64
}

// New builds a Sequence over caller-provided backing data.
//
//   - length: number of positions L (must be > 0).
//   - emissionDims: per-slot dimensionality (at least one slot).
//   - emissions: len must be L × Σ emissionDims.
//   - covarDims, covars: optional; pass nil, nil for a covariate-free
//     sequence. When present, len(covars) must be L × Σ covarDims.
//
// The Sequence aliases the provided slices; the caller must not mutate
// them while inference is running.
func New(length int, emissionDims []int, emissions []float64, covarDims []int, covars []float64) (*Sequence, error) {
	if length <= 0 {
		return nil, ErrEmptySequence
	}
	if len(emissionDims) == 0 {
		return nil, ErrNoSlots
	}

	estep, eoffsets := slotLayout(emissionDims)
	if len(emissions) != length*estep {
		return nil, fmt.Errorf("%w: emissions len=%d, want %d", ErrDimensionMismatch, len(emissions), length*estep)
	}

	s := &Sequence{
		length:    length,
		estep:     estep,
		eoffsets:  eoffsets,
		emissions: emissions,
	}

	if covarDims != nil {
		s.cstep, s.coffsets = slotLayout(covarDims)
		if len(covars) != length*s.cstep {
			return nil, fmt.Errorf("%w: covars len=%d, want %d", ErrDimensionMismatch, len(covars), length*s.cstep)
		}
		s.covars = covars
	}

	return s, nil
}

// slotLayout converts per-slot dimensionalities into a position stride
// and per-slot starting offsets.
func slotLayout(dims []int) (step int, offsets []int) {
	offsets = make([]int, len(dims))
	for s, d := range dims {
		offsets[s] = step
		step += d
	}

	return step, offsets
}

// Len returns the number of positions L.
func (s *Sequence) Len() int { return s.length }

// EmissionSlots returns the number of emission slots.
func (s *Sequence) EmissionSlots() int { return len(s.eoffsets) }

// CovarSlots returns the number of covariate slots (zero when absent).
func (s *Sequence) CovarSlots() int { return len(s.coffsets) }

// Iter returns a fresh cursor positioned at index 0.
func (s *Sequence) Iter() *Iter {
	return &Iter{seq: s}
}
