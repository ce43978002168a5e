// Package listappend provides the list_append operator: it appends a
// deep copy of a dense tensor to a tensor-list variable, growing the
// list by one entry per execution.
package listappend

import (
	"context"
	"fmt"

	"github.com/vk/tensorgrid/internal/ctxlog"
	"github.com/vk/tensorgrid/internal/device"
	"github.com/vk/tensorgrid/internal/graph"
	"github.com/vk/tensorgrid/internal/registry"
	"github.com/vk/tensorgrid/internal/scope"
	"github.com/vk/tensorgrid/internal/tensor"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the list_append operator kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOp("list_append", newOp)
}

type op struct {
	in  string
	out string
}

func newOp(desc *graph.OpDesc) (registry.Operator, error) {
	if len(desc.Inputs) != 1 || len(desc.Outputs) != 1 {
		return nil, fmt.Errorf("op '%s': list_append needs one input and one output", desc.ID())
	}
	return &op{in: desc.Inputs[0], out: desc.Outputs[0]}, nil
}

func (o *op) Run(ctx context.Context, sc *scope.Scope, place device.Place) error {
	ctxlog.FromContext(ctx).Debug("Running list_append.", "in", o.in, "out", o.out, "place", place.String())

	in := sc.FindVar(o.in)
	if in == nil || !in.Initialized() {
		return fmt.Errorf("list_append: input variable %q is not materialized", o.in)
	}
	if in.Kind() != scope.KindTensor {
		return fmt.Errorf("list_append: input %q has kind %v, want %v", o.in, in.Kind(), scope.KindTensor)
	}

	out := sc.FindOrCreateVar(o.out)
	if !out.Initialized() {
		out.Initialize(scope.KindTensorList)
	}
	entry := &tensor.Tensor{}
	entry.CopyFrom(in.Tensor())
	out.SetTensorList(append(out.TensorList(), entry))
	return nil
}
