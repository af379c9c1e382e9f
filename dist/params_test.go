package dist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregenomics/qhmm/dist"
)

// TestParams_CopySemantics verifies that NewParams copies its input and
// Values returns fresh slices.
func TestParams_CopySemantics(t *testing.T) {
	src := []float64{0.1, 0.9}
	p := dist.NewParams(src...)
	src[0] = 42

	require.Equal(t, 0.1, p.At(0), "NewParams must copy its input")

	v := p.Values()
	v[1] = 42
	require.Equal(t, 0.9, p.At(1), "Values must return a fresh copy")
}

// TestParams_FixedMask verifies the fixed mask and AnyFixed.
func TestParams_FixedMask(t *testing.T) {
	p := dist.NewParams(1, 2, 3)
	require.False(t, p.AnyFixed())

	p.SetFixed(1, true)
	require.True(t, p.IsFixed(1))
	require.False(t, p.IsFixed(0))
	require.True(t, p.AnyFixed())
}

// TestParams_CloneIndependence verifies that Clone detaches both the
// values and the fixed mask.
func TestParams_CloneIndependence(t *testing.T) {
	p := dist.NewParams(1, 2)
	p.SetFixed(0, true)

	q := p.Clone()
	q.SetFixed(0, false)

	require.True(t, p.IsFixed(0))
	require.Equal(t, p.Values(), q.Values())
}
