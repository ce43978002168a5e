// Package scale provides the scale operator: out = in * scale + bias.
// It accepts dense and sparse inputs; for sparse inputs the row indices
// pass through untouched and only the value tensor is transformed.
package scale

import (
	"context"
	"fmt"

	"github.com/vk/tensorgrid/internal/attrs"
	"github.com/vk/tensorgrid/internal/ctxlog"
	"github.com/vk/tensorgrid/internal/device"
	"github.com/vk/tensorgrid/internal/graph"
	"github.com/vk/tensorgrid/internal/registry"
	"github.com/vk/tensorgrid/internal/scope"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the scale operator kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOp("scale", newOp)
}

type op struct {
	in    string
	out   string
	scale float32
	bias  float32
}

func newOp(desc *graph.OpDesc) (registry.Operator, error) {
	if len(desc.Inputs) != 1 || len(desc.Outputs) != 1 {
		return nil, fmt.Errorf("op '%s': scale needs one input and one output", desc.ID())
	}
	scaleAttr, err := attrs.FloatOr(desc, "scale", 1)
	if err != nil {
		return nil, err
	}
	bias, err := attrs.FloatOr(desc, "bias", 0)
	if err != nil {
		return nil, err
	}
	return &op{
		in:    desc.Inputs[0],
		out:   desc.Outputs[0],
		scale: float32(scaleAttr),
		bias:  float32(bias),
	}, nil
}

func (o *op) Run(ctx context.Context, sc *scope.Scope, place device.Place) error {
	ctxlog.FromContext(ctx).Debug("Running scale.", "in", o.in, "out", o.out, "place", place.String())

	in := sc.FindVar(o.in)
	if in == nil || !in.Initialized() {
		return fmt.Errorf("scale: input variable %q is not materialized", o.in)
	}
	out := sc.FindOrCreateVar(o.out)

	switch in.Kind() {
	case scope.KindTensor:
		if !out.Initialized() {
			out.Initialize(scope.KindTensor)
		}
		src := in.Tensor()
		dst := out.Tensor()
		if dst != src {
			dst.Resize(src.Dims()...)
		}
		srcData, dstData := src.Data(), dst.Data()
		for i, x := range srcData {
			dstData[i] = x*o.scale + o.bias
		}
	case scope.KindSelectedRows:
		if !out.Initialized() {
			out.Initialize(scope.KindSelectedRows)
		}
		src := in.SelectedRows()
		dst := out.SelectedRows()
		if dst != src {
			dst.SetRows(src.Rows())
			dst.SetHeight(src.Height())
			dst.Value().Resize(src.Value().Dims()...)
		}
		srcData, dstData := src.Value().Data(), dst.Value().Data()
		for i, x := range srcData {
			dstData[i] = x*o.scale + o.bias
		}
	default:
		return fmt.Errorf("scale: unsupported input kind %v for %q", in.Kind(), o.in)
	}
	return nil
}
