// Package concat provides the concat_rows operator: it stacks two or
// more dense tensors along the leading dimension.
package concat

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

// Register registers the concat_rows operator kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOp("concat_rows", newOp)
}

type op struct {
	ins []string
	out string
}

func newOp(desc *graph.OpDesc) (registry.Operator, error) {
	if len(desc.Inputs) < 2 || len(desc.Outputs) != 1 {
		return nil, fmt.Errorf("op '%s': concat_rows needs at least two inputs and one output", desc.ID())
	}
	return &op{ins: desc.Inputs, out: desc.Outputs[0]}, nil
}

func (o *op) Run(ctx context.Context, sc *scope.Scope, place device.Place) error {
	ctxlog.FromContext(ctx).Debug("Running concat_rows.", "inputs", len(o.ins), "out", o.out, "place", place.String())

	parts := make([]*tensor.Tensor, len(o.ins))
	for i, name := range o.ins {
		v := sc.FindVar(name)
		if v == nil || !v.Initialized() {
			return fmt.Errorf("concat_rows: input variable %q is not materialized", name)
		}
		if v.Kind() != scope.KindTensor {
			return fmt.Errorf("concat_rows: input %q has kind %v, want %v", name, v.Kind(), scope.KindTensor)
		}
		parts[i] = v.Tensor()
	}

	merged, err := tensor.ConcatRows(parts)
	if err != nil {
		return fmt.Errorf("concat_rows: %w", err)
	}

	out := sc.FindOrCreateVar(o.out)
	if !out.Initialized() {
		out.Initialize(scope.KindTensor)
	}
	out.Tensor().ShareDataWith(merged)
	return nil
}
