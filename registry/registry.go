// Package registry maps distribution family names to factories so
// external layers (configuration parsers, language bindings) can build
// models without compile-time knowledge of the families involved.
//
// Registration is an explicit call — nothing registers itself at init
// time — and teardown is package-scoped: UnregisterAll removes every
// family a providing package registered, mirroring dynamic plug-in
// unloading.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coregenomics/qhmm/dist"
)

var (
	// ErrUnknownFamily indicates a lookup for a name never registered
	// (or already unregistered).
	ErrUnknownFamily = errors.New("registry: unknown distribution family")

	// ErrDuplicateFamily indicates a second registration under an
	// already-taken name.
	ErrDuplicateFamily = errors.New("registry: family name already registered")

	// ErrIncompleteEntry indicates a factory with neither constructor.
	ErrIncompleteEntry = errors.New("registry: factory needs an emission or transition constructor")
)

// Factory describes one distribution family. Only the constructors the
// family supports are non-nil.
type Factory struct {
	// Name keys lookups; unique per registry.
	Name string

	// Package identifies the providing package for bulk teardown.
	Package string

	// NeedsCovars marks families whose log-probability reads covariates.
	NeedsCovars bool

	// NewEmission builds an emission instance, or nil for
	// transition-only families.
	NewEmission func(stateID, slotID, dim int) dist.Emission

	// NewTransition builds a transition instance, or nil for
	// emission-only families.
	NewTransition func(nStates, stateID int, targets []int) dist.Transition
}

// Registry is a concurrency-safe name→factory table.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Factory
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Factory)}
}

// Register adds a factory, rejecting duplicates and entries with no
// constructor.
func (r *Registry) Register(f Factory) error {
	if f.NewEmission == nil && f.NewTransition == nil {
		return fmt.Errorf("%w: %q", ErrIncompleteEntry, f.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.entries[f.Name]; taken {
		return fmt.Errorf("%w: %q", ErrDuplicateFamily, f.Name)
	}
	r.entries[f.Name] = f

	return nil
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.entries[name]
	if !ok {
		return Factory{}, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}

	return f, nil
}

// UnregisterAll removes every factory the given package registered and
// returns how many were removed.
func (r *Registry) UnregisterAll(pkg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for name, f := range r.entries {
		if f.Package == pkg {
			delete(r.entries, name)
			removed++
		}
	}

	return removed
}

// BuiltinPackage is the package name the reference families register
// under.
const BuiltinPackage = "qhmm"

// RegisterBuiltins registers the reference families: "discrete" (both
// an emission and a transition constructor), "gamma" and
// "negbinomial_scaled".
func RegisterBuiltins(r *Registry) error {
	builtins := []Factory{
		{
			Name:    "discrete",
			Package: BuiltinPackage,
			NewEmission: func(stateID, slotID, _ int) dist.Emission {
				return dist.NewDiscreteEmission(stateID, slotID)
			},
			NewTransition: func(nStates, stateID int, targets []int) dist.Transition {
				return dist.NewDiscreteTransition(nStates, stateID, targets)
			},
		},
		{
			Name:    "gamma",
			Package: BuiltinPackage,
			NewEmission: func(stateID, slotID, _ int) dist.Emission {
				return dist.NewGamma(stateID, slotID)
			},
		},
		{
			Name:    "negbinomial_scaled",
			Package: BuiltinPackage,
			NewEmission: func(stateID, slotID, _ int) dist.Emission {
				return dist.NewNegBinomialScaled(stateID, slotID)
			},
		},
	}

	for _, f := range builtins {
		if err := r.Register(f); err != nil {
			return err
		}
	}

	return nil
}
