package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/registry"
)

// TestRegister_LookupAndErrors covers registration, lookup, duplicate
// rejection and the incomplete-entry guard.
func TestRegister_LookupAndErrors(t *testing.T) {
	r := registry.New()

	_, err := r.Lookup("discrete")
	require.ErrorIs(t, err, registry.ErrUnknownFamily)

	err = r.Register(registry.Factory{Name: "empty", Package: "x"})
	require.ErrorIs(t, err, registry.ErrIncompleteEntry)

	f := registry.Factory{
		Name:    "gamma",
		Package: "x",
		NewEmission: func(stateID, slotID, _ int) dist.Emission {
			return dist.NewGamma(stateID, slotID)
		},
	}
	require.NoError(t, r.Register(f))
	require.ErrorIs(t, r.Register(f), registry.ErrDuplicateFamily)

	got, err := r.Lookup("gamma")
	require.NoError(t, err)
	require.NotNil(t, got.NewEmission)
	require.Nil(t, got.NewTransition, "gamma is emission-only")
}

// TestUnregisterAll_PackageScoped verifies bulk teardown removes only
// the named package's families.
func TestUnregisterAll_PackageScoped(t *testing.T) {
	r := registry.New()
	require.NoError(t, registry.RegisterBuiltins(r))

	require.NoError(t, r.Register(registry.Factory{
		Name:    "external",
		Package: "other",
		NewEmission: func(stateID, slotID, _ int) dist.Emission {
			return dist.NewDiscreteEmission(stateID, slotID)
		},
	}))

	removed := r.UnregisterAll(registry.BuiltinPackage)
	require.Equal(t, 3, removed)

	_, err := r.Lookup("discrete")
	require.ErrorIs(t, err, registry.ErrUnknownFamily)

	_, err = r.Lookup("external")
	require.NoError(t, err, "other packages' families must survive")
}

// TestRegisterBuiltins_Constructors spot-checks the built-in factories
// produce working instances.
func TestRegisterBuiltins_Constructors(t *testing.T) {
	r := registry.New()
	require.NoError(t, registry.RegisterBuiltins(r))

	f, err := r.Lookup("discrete")
	require.NoError(t, err)

	em := f.NewEmission(2, 1, 1)
	require.Equal(t, 2, em.StateID())
	require.Equal(t, 1, em.SlotID())

	tr := f.NewTransition(3, 0, []int{0, 1})
	require.Equal(t, 3, tr.NStates())
	require.Equal(t, []int{0, 1}, tr.Targets())
}
