package attrs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/tensorgrid/internal/graph"
)

func descWith(attrs map[string]cty.Value) *graph.OpDesc {
	return &graph.OpDesc{Kind: "fill_constant", Name: "x", Attrs: attrs}
}

func TestFloat(t *testing.T) {
	t.Parallel()

	op := descWith(map[string]cty.Value{"value": cty.NumberFloatVal(1.5)})

	f, err := Float(op, "value")
	require.NoError(t, err)
	require.Equal(t, 1.5, f)
}

func TestFloatMissing(t *testing.T) {
	t.Parallel()

	_, err := Float(descWith(nil), "value")
	require.ErrorContains(t, err, `missing attribute "value"`)
	require.ErrorContains(t, err, "fill_constant.x")
}

func TestFloatWrongType(t *testing.T) {
	t.Parallel()

	op := descWith(map[string]cty.Value{"value": cty.StringVal("not a number")})

	_, err := Float(op, "value")
	require.ErrorContains(t, err, `attribute "value"`)
}

func TestFloatOr(t *testing.T) {
	t.Parallel()

	op := descWith(map[string]cty.Value{"scale": cty.NumberFloatVal(2)})

	f, err := FloatOr(op, "scale", 1)
	require.NoError(t, err)
	require.Equal(t, 2.0, f)

	f, err = FloatOr(op, "bias", 0)
	require.NoError(t, err)
	require.Equal(t, 0.0, f)
}

func TestInt64s(t *testing.T) {
	t.Parallel()

	// HCL list literals decode as tuples, not lists.
	op := descWith(map[string]cty.Value{"shape": cty.TupleVal([]cty.Value{
		cty.NumberIntVal(4),
		cty.NumberIntVal(2),
	})})

	dims, err := Int64s(op, "shape")
	require.NoError(t, err)
	require.Equal(t, []int64{4, 2}, dims)
}

func TestInt64sMissing(t *testing.T) {
	t.Parallel()

	_, err := Int64s(descWith(nil), "shape")
	require.ErrorContains(t, err, `missing attribute "shape"`)
}

func TestInt64sWrongElementType(t *testing.T) {
	t.Parallel()

	op := descWith(map[string]cty.Value{"shape": cty.TupleVal([]cty.Value{
		cty.NumberIntVal(4),
		cty.StringVal("two"),
	})})

	_, err := Int64s(op, "shape")
	require.ErrorContains(t, err, `attribute "shape"`)
}
