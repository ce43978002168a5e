// Package attrs decodes typed operator attributes from their cty values
// into plain Go values, with uniform error reporting.
package attrs

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/tensorgrid/internal/graph"
)

// Float decodes a required numeric attribute.
func Float(op *graph.OpDesc, name string) (float64, error) {
	v := op.Attr(name)
	if v == cty.NilVal {
		return 0, fmt.Errorf("op '%s': missing attribute %q", op.ID(), name)
	}
	var f float64
	if err := gocty.FromCtyValue(v, &f); err != nil {
		return 0, fmt.Errorf("op '%s': attribute %q: %w", op.ID(), name, err)
	}
	return f, nil
}

// FloatOr decodes an optional numeric attribute, returning def when the
// attribute is absent.
func FloatOr(op *graph.OpDesc, name string, def float64) (float64, error) {
	if op.Attr(name) == cty.NilVal {
		return def, nil
	}
	return Float(op, name)
}

// Int64s decodes a required list-of-numbers attribute. HCL produces
// tuple values for literals like [4, 2], so the value is converted to a
// uniform number list first.
func Int64s(op *graph.OpDesc, name string) ([]int64, error) {
	v := op.Attr(name)
	if v == cty.NilVal {
		return nil, fmt.Errorf("op '%s': missing attribute %q", op.ID(), name)
	}
	conv, err := convert.Convert(v, cty.List(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("op '%s': attribute %q: %w", op.ID(), name, err)
	}
	var out []int64
	if err := gocty.FromCtyValue(conv, &out); err != nil {
		return nil, fmt.Errorf("op '%s': attribute %q: %w", op.ID(), name, err)
	}
	return out, nil
}
