package dist

import "errors"

// ErrInvalidParams indicates a parameter vector rejected by a family's
// validity predicate (wrong arity, out-of-range values, bad sum).
var ErrInvalidParams = errors.New("dist: invalid parameters")

// ErrHeterogeneousGroup indicates a sharing group whose members are not
// all of the calling family.
var ErrHeterogeneousGroup = errors.New("dist: sharing group mixes distribution families")

// Params is an ordered list of real parameters with a parallel fixed
// mask. The meaning and arity of the values is family-specific.
type Params struct {
	values []float64
	fixed  []bool
}

// NewParams builds a Params value over copies of the given values, with
// all entries free (not fixed).
func NewParams(values ...float64) Params {
	v := make([]float64, len(values))
	copy(v, values)

	return Params{values: v, fixed: make([]bool, len(values))}
}

// Len returns the number of parameters.
func (p Params) Len() int { return len(p.values) }

// At returns parameter i.
func (p Params) At(i int) float64 { return p.values[i] }

// Values returns a fresh copy of the parameter vector.
func (p Params) Values() []float64 {
	v := make([]float64, len(p.values))
	copy(v, p.values)

	return v
}

// IsFixed reports whether parameter i is held fixed during estimation.
func (p Params) IsFixed(i int) bool { return p.fixed[i] }

// SetFixed marks parameter i as fixed (or frees it again).
func (p *Params) SetFixed(i int, fixed bool) { p.fixed[i] = fixed }

// AnyFixed reports whether any parameter is held fixed.
func (p Params) AnyFixed() bool {
	for _, f := range p.fixed {
		if f {
			return true
		}
	}

	return false
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	out := Params{
		values: make([]float64, len(p.values)),
		fixed:  make([]bool, len(p.fixed)),
	}
	copy(out.values, p.values)
	copy(out.fixed, p.fixed)

	return out
}
