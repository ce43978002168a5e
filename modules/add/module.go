// Package add provides the elementwise_add operator for dense tensors.
package add

import (
	"context"
	"fmt"

	"github.com/vk/tensorgrid/internal/ctxlog"
	"github.com/vk/tensorgrid/internal/device"
	"github.com/vk/tensorgrid/internal/graph"
	"github.com/vk/tensorgrid/internal/registry"
	"github.com/vk/tensorgrid/internal/scope"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the elementwise_add operator kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOp("elementwise_add", newOp)
}

type op struct {
	lhs string
	rhs string
	out string
}

func newOp(desc *graph.OpDesc) (registry.Operator, error) {
	if len(desc.Inputs) != 2 || len(desc.Outputs) != 1 {
		return nil, fmt.Errorf("op '%s': elementwise_add needs two inputs and one output", desc.ID())
	}
	return &op{lhs: desc.Inputs[0], rhs: desc.Inputs[1], out: desc.Outputs[0]}, nil
}

func (o *op) Run(ctx context.Context, sc *scope.Scope, place device.Place) error {
	ctxlog.FromContext(ctx).Debug("Running elementwise_add.", "lhs", o.lhs, "rhs", o.rhs, "out", o.out, "place", place.String())

	tensors := make([]*scope.Variable, 2)
	for i, name := range []string{o.lhs, o.rhs} {
		v := sc.FindVar(name)
		if v == nil || !v.Initialized() {
			return fmt.Errorf("elementwise_add: input variable %q is not materialized", name)
		}
		if v.Kind() != scope.KindTensor {
			return fmt.Errorf("elementwise_add: input %q has kind %v, want %v", name, v.Kind(), scope.KindTensor)
		}
		tensors[i] = v
	}
	lhs, rhs := tensors[0].Tensor(), tensors[1].Tensor()
	if lhs.NumElements() != rhs.NumElements() {
		return fmt.Errorf("elementwise_add: size mismatch: %q has %d elements, %q has %d",
			o.lhs, lhs.NumElements(), o.rhs, rhs.NumElements())
	}

	out := sc.FindOrCreateVar(o.out)
	if !out.Initialized() {
		out.Initialize(scope.KindTensor)
	}
	dst := out.Tensor()
	if dst != lhs && dst != rhs {
		dst.Resize(lhs.Dims()...)
	}
	a, b, c := lhs.Data(), rhs.Data(), dst.Data()
	for i := range c {
		c[i] = a[i] + b[i]
	}
	return nil
}
