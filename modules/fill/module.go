// Package fill provides the constant-fill operators used to materialize
// dense and sparse values from graph attributes.
package fill

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

// Register registers the fill operator kinds with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOp("fill_constant", newConstantOp)
	r.RegisterOp("fill_selected_rows", newSelectedRowsOp)
}

// constantOp writes a dense tensor of a fixed shape and value.
type constantOp struct {
	out   string
	shape []int64
	value float32
}

func newConstantOp(desc *graph.OpDesc) (registry.Operator, error) {
	if len(desc.Outputs) != 1 {
		return nil, fmt.Errorf("op '%s': fill_constant needs exactly one output, got %d", desc.ID(), len(desc.Outputs))
	}
	shape, err := attrs.Int64s(desc, "shape")
	if err != nil {
		return nil, err
	}
	value, err := attrs.Float(desc, "value")
	if err != nil {
		return nil, err
	}
	return &constantOp{out: desc.Outputs[0], shape: shape, value: float32(value)}, nil
}

func (o *constantOp) Run(ctx context.Context, sc *scope.Scope, place device.Place) error {
	ctxlog.FromContext(ctx).Debug("Running fill_constant.", "out", o.out, "place", place.String())

	v := sc.FindOrCreateVar(o.out)
	if !v.Initialized() {
		v.Initialize(scope.KindTensor)
	}
	t := v.Tensor()
	t.Resize(o.shape...)
	data := t.Data()
	for i := range data {
		data[i] = o.value
	}
	return nil
}

// selectedRowsOp writes a sparse row set of a fixed height and value.
type selectedRowsOp struct {
	out      string
	rows     []int64
	height   int64
	rowWidth int64
	value    float32
}

func newSelectedRowsOp(desc *graph.OpDesc) (registry.Operator, error) {
	if len(desc.Outputs) != 1 {
		return nil, fmt.Errorf("op '%s': fill_selected_rows needs exactly one output, got %d", desc.ID(), len(desc.Outputs))
	}
	rows, err := attrs.Int64s(desc, "rows")
	if err != nil {
		return nil, err
	}
	height, err := attrs.Float(desc, "height")
	if err != nil {
		return nil, err
	}
	rowWidth, err := attrs.Float(desc, "row_width")
	if err != nil {
		return nil, err
	}
	value, err := attrs.FloatOr(desc, "value", 0)
	if err != nil {
		return nil, err
	}
	return &selectedRowsOp{
		out:      desc.Outputs[0],
		rows:     rows,
		height:   int64(height),
		rowWidth: int64(rowWidth),
		value:    float32(value),
	}, nil
}

func (o *selectedRowsOp) Run(ctx context.Context, sc *scope.Scope, place device.Place) error {
	ctxlog.FromContext(ctx).Debug("Running fill_selected_rows.", "out", o.out, "place", place.String())

	v := sc.FindOrCreateVar(o.out)
	if !v.Initialized() {
		v.Initialize(scope.KindSelectedRows)
	}
	sr := v.SelectedRows()
	sr.SetRows(o.rows)
	sr.SetHeight(o.height)
	sr.Value().Resize(int64(len(o.rows)), o.rowWidth)
	data := sr.Value().Data()
	for i := range data {
		data[i] = o.value
	}
	return nil
}
