// Package registry maps operator kind names to the Go factories that
// build runnable operators. Operator kinds are resolved by string at
// setup time, which is what lets graphs (and their auxiliary setup
// programs) name operators without linking against their packages.
package registry

import (
	"context"
	"fmt"

	"github.com/vk/tensorgrid/internal/device"
	"github.com/vk/tensorgrid/internal/graph"
	"github.com/vk/tensorgrid/internal/scope"
)

// Operator is a runnable operator instance, bound to its descriptor at
// construction. Run reads its inputs from and writes its outputs to the
// given scope, on the given placement.
type Operator interface {
	Run(ctx context.Context, sc *scope.Scope, place device.Place) error
}

// Factory constructs an Operator from its descriptor, validating the
// descriptor's inputs, outputs, and attributes.
type Factory func(desc *graph.OpDesc) (Operator, error)

// Module is the interface operator packages implement to plug their
// kinds into a registry.
type Module interface {
	Register(r *Registry)
}

// Registry holds the operator factories for a single engine instance.
type Registry struct {
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterOp adds a factory for the given kind. Registering the same
// kind twice is a programmer error and panics.
func (r *Registry) RegisterOp(kind string, f Factory) {
	if _, dup := r.factories[kind]; dup {
		panic(fmt.Sprintf("registry: operator kind %q registered twice", kind))
	}
	r.factories[kind] = f
}

// NewOp builds a runnable operator from the descriptor, failing on
// unknown kinds.
func (r *Registry) NewOp(desc *graph.OpDesc) (Operator, error) {
	f, ok := r.factories[desc.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown operator kind %q", desc.Kind)
	}
	return f(desc)
}

// Kinds reports whether the given kind has a registered factory.
func (r *Registry) Kinds(kind string) bool {
	_, ok := r.factories[kind]
	return ok
}
