package seq_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregenomics/qhmm/seq"
)

// TestNew_Validation exercises the constructor's sentinel errors.
func TestNew_Validation(t *testing.T) {
	_, err := seq.New(0, []int{1}, nil, nil, nil)
	require.ErrorIs(t, err, seq.ErrEmptySequence)

	_, err = seq.New(3, nil, nil, nil, nil)
	require.ErrorIs(t, err, seq.ErrNoSlots)

	_, err = seq.New(3, []int{1}, []float64{1, 2}, nil, nil)
	require.ErrorIs(t, err, seq.ErrDimensionMismatch)

	_, err = seq.New(2, []int{1}, []float64{1, 2}, []int{2}, []float64{1, 2, 3})
	require.ErrorIs(t, err, seq.ErrDimensionMismatch)
}

// TestIter_CursorInvariants checks ResetFirst/ResetLast/Next/Prev
// semantics: movement reporting and boundary behavior.
func TestIter_CursorInvariants(t *testing.T) {
	s, err := seq.New(3, []int{1}, []float64{10, 20, 30}, nil, nil)
	require.NoError(t, err)

	it := s.Iter()
	require.Equal(t, 0, it.Index())
	require.Equal(t, 3, it.Len())

	require.True(t, it.Next())
	require.True(t, it.Next())
	require.Equal(t, 2, it.Index())
	require.False(t, it.Next(), "Next at the last position must not move")
	require.Equal(t, 2, it.Index())

	it.ResetFirst()
	require.Equal(t, 0, it.Index())
	require.False(t, it.Prev(), "Prev at position 0 must not move")

	it.ResetLast()
	require.Equal(t, 2, it.Index())
	require.True(t, it.Prev())
	require.Equal(t, 1, it.Index())
}

// TestIter_MultiSlotLayout verifies slot offsets and per-component
// access across two emission slots of different dimensionality.
func TestIter_MultiSlotLayout(t *testing.T) {
	// Two positions; slot 0 has dim 2, slot 1 has dim 1.
	data := []float64{
		1, 2, 3, // position 0: slot0 = (1,2), slot1 = 3
		4, 5, 6, // position 1: slot0 = (4,5), slot1 = 6
	}
	s, err := seq.New(2, []int{2, 1}, data, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, s.EmissionSlots())

	it := s.Iter()
	require.Equal(t, 1.0, it.Emission(0))
	require.Equal(t, 2.0, it.EmissionAt(0, 1))
	require.Equal(t, 3.0, it.Emission(1))

	require.True(t, it.Next())
	require.Equal(t, 4.0, it.Emission(0))
	require.Equal(t, 6.0, it.Emission(1))
}

// TestIter_Covariates verifies covariate access including relative
// offsets via CovarExt.
func TestIter_Covariates(t *testing.T) {
	emissions := []float64{0, 0, 0}
	covars := []float64{7, 8, 9}
	s, err := seq.New(3, []int{1}, emissions, []int{1}, covars)
	require.NoError(t, err)
	require.Equal(t, 1, s.CovarSlots())

	it := s.Iter()
	require.True(t, it.Next()) // position 1
	require.Equal(t, 8.0, it.Covar(0))
	require.Equal(t, 8.0, it.CovarAt(0, 0))

	// Relative reads must not move the cursor.
	require.Equal(t, 9.0, it.CovarExt(0, 0, 1))
	require.Equal(t, 7.0, it.CovarExt(0, 0, -1))
	require.Equal(t, 1, it.Index())
}
