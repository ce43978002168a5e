package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/tensorgrid/internal/scope"
	"github.com/vk/tensorgrid/internal/tensor"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	infos := []scope.VariableInfo{
		{Name: "w", Kind: scope.KindTensor, Persistable: true},
		{Name: "embedding", Kind: scope.KindSelectedRows, Persistable: true},
		{Name: "history", Kind: scope.KindTensorList, Persistable: true},
		{Name: "tmp", Kind: scope.KindTensor},
	}

	src := scope.New()

	w := src.Var("w")
	w.Initialize(scope.KindTensor)
	w.Tensor().Resize(2, 2)
	copy(w.Tensor().Data(), []float32{1, 2, 3, 4})

	emb := src.Var("embedding")
	emb.Initialize(scope.KindSelectedRows)
	sr := emb.SelectedRows()
	sr.SetRows([]int64{0, 7})
	sr.SetHeight(10)
	sr.Value().Resize(2, 3)
	copy(sr.Value().Data(), []float32{1, 1, 1, 2, 2, 2})

	hist := src.Var("history")
	hist.Initialize(scope.KindTensorList)
	step := &tensor.Tensor{}
	step.Resize(2)
	copy(step.Data(), []float32{5, 6})
	hist.SetTensorList([]*tensor.Tensor{step})

	tmp := src.Var("tmp")
	tmp.Initialize(scope.KindTensor)
	tmp.Tensor().Resize(1)

	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), src, infos))

	dst := scope.New()
	require.NoError(t, store.Load(context.Background(), dst, infos))

	got := dst.FindVar("w")
	require.NotNil(t, got)
	require.Equal(t, []int64{2, 2}, got.Tensor().Dims())
	require.Equal(t, []float32{1, 2, 3, 4}, got.Tensor().Data())

	gotSR := dst.FindVar("embedding").SelectedRows()
	require.Equal(t, []int64{0, 7}, gotSR.Rows())
	require.Equal(t, int64(10), gotSR.Height())
	require.Equal(t, []float32{1, 1, 1, 2, 2, 2}, gotSR.Value().Data())

	gotList := dst.FindVar("history").TensorList()
	require.Len(t, gotList, 1)
	require.Equal(t, []float32{5, 6}, gotList[0].Data())

	// Non-persistable variables never enter the checkpoint.
	require.Nil(t, dst.FindVar("tmp"))
}

func TestSaveSkipsUninitialized(t *testing.T) {
	t.Parallel()

	infos := []scope.VariableInfo{{Name: "w", Kind: scope.KindTensor, Persistable: true}}

	src := scope.New()
	src.Var("w") // declared, never initialized

	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), src, infos))

	dst := scope.New()
	require.NoError(t, store.Load(context.Background(), dst, infos))
	require.Nil(t, dst.FindVar("w"))
}

func TestLoadMissingFileIsNoOp(t *testing.T) {
	t.Parallel()

	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	sc := scope.New()
	require.NoError(t, store.Load(context.Background(), sc, []scope.VariableInfo{
		{Name: "w", Kind: scope.KindTensor, Persistable: true},
	}))
	require.Nil(t, sc.FindVar("w"))
}

func TestLoadCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFSStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "variables.msgpack"), []byte("not msgpack"), 0o644))

	err = store.Load(context.Background(), scope.New(), nil)
	require.ErrorContains(t, err, "decoding checkpoint")
}
