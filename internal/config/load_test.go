package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/tensorgrid/internal/scope"
)

const fullModel = `
execution {
  num_iterations_per_drop = 3
  workers                 = 2
  replicas                = 2
}

fused_vars = ["fused_grad"]

variable "w" {
  kind        = "tensor"
  persistable = true
}

variable "tmp" {
  kind = "tensor"
}

op "fill_constant" "init_tmp" {
  outputs = ["tmp"]
  attrs {
    shape = [4]
    value = 0.5
  }
}

op "scale" "scale_tmp" {
  inputs  = ["tmp"]
  outputs = ["tmp"]
  attrs {
    scale = 2
  }
}

program "warmup" {
  op "fill_constant" "init_w" {
    outputs = ["w"]
    attrs {
      shape = [4]
      value = 1
    }
  }
}
`

func TestLoadBytesFullModel(t *testing.T) {
	t.Parallel()

	model, err := LoadBytes(context.Background(), []byte(fullModel), "model.hcl")
	require.NoError(t, err)

	wantExec := Execution{NumIterationsPerDrop: 3, Workers: 2, Replicas: 2}
	if diff := cmp.Diff(wantExec, model.Execution); diff != "" {
		t.Fatalf("execution mismatch (-want +got):\n%s", diff)
	}

	wantVars := []scope.VariableInfo{
		{Name: "w", Kind: scope.KindTensor, Persistable: true},
		{Name: "tmp", Kind: scope.KindTensor},
	}
	if diff := cmp.Diff(wantVars, model.VarInfos); diff != "" {
		t.Fatalf("variables mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, []string{"fused_grad"}, model.FusedVars)

	require.Len(t, model.Ops, 2)
	fill := model.Ops[0]
	require.Equal(t, "fill_constant.init_tmp", fill.ID())
	require.Equal(t, []string{"tmp"}, fill.Outputs)
	require.True(t, fill.Attr("value").RawEquals(cty.NumberFloatVal(0.5)))
	require.Equal(t, "scale.scale_tmp", model.Ops[1].ID())

	require.Len(t, model.Programs, 1)
	require.Len(t, model.Programs[0].Blocks, 1)
	require.Equal(t, "fill_constant.init_w", model.Programs[0].Blocks[0][0].ID())
}

func TestLoadBytesDefaults(t *testing.T) {
	t.Parallel()

	model, err := LoadBytes(context.Background(), []byte(``), "empty.hcl")
	require.NoError(t, err)
	require.Equal(t, Execution{NumIterationsPerDrop: 1, Workers: 4, Replicas: 1}, model.Execution)
	require.Empty(t, model.Ops)
	require.Empty(t, model.VarInfos)
}

func TestLoadBytesOpWithoutAttrs(t *testing.T) {
	t.Parallel()

	src := `
op "noop" "n" {
  inputs = ["a"]
}
`
	model, err := LoadBytes(context.Background(), []byte(src), "model.hcl")
	require.NoError(t, err)
	require.Len(t, model.Ops, 1)
	require.Equal(t, cty.NilVal, model.Ops[0].Attr("anything"))
}

func TestLoadBytesRejectsBadDropCadence(t *testing.T) {
	t.Parallel()

	src := `
execution {
  num_iterations_per_drop = -2
}
`
	_, err := LoadBytes(context.Background(), []byte(src), "model.hcl")
	require.ErrorContains(t, err, "num_iterations_per_drop must be positive")
}

func TestLoadBytesRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	src := `
variable "w" {
  kind = "sparse_matrix"
}
`
	_, err := LoadBytes(context.Background(), []byte(src), "model.hcl")
	require.ErrorContains(t, err, `variable "w"`)
}

func TestLoadBytesRejectsMalformedHCL(t *testing.T) {
	t.Parallel()

	_, err := LoadBytes(context.Background(), []byte(`op "fill" {`), "model.hcl")
	require.ErrorContains(t, err, "parsing model.hcl")
}

func TestLoadBytesRejectsNonConstantAttr(t *testing.T) {
	t.Parallel()

	src := `
op "fill_constant" "x" {
  attrs {
    value = var.undefined
  }
}
`
	_, err := LoadBytes(context.Background(), []byte(src), "model.hcl")
	require.ErrorContains(t, err, "evaluating attr")
}

func TestLoadReadsFromDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.hcl")
	require.NoError(t, os.WriteFile(path, []byte(fullModel), 0o644))

	model, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Ops, 2)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))
	require.Error(t, err)
}
