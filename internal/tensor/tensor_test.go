package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTensorLifecycle(t *testing.T) {
	t.Parallel()

	tt := &Tensor{}
	require.True(t, tt.Empty())
	require.Nil(t, tt.Holder())
	require.EqualValues(t, 0, tt.NumElements())

	tt.Resize(2, 3)
	require.False(t, tt.Empty())
	require.EqualValues(t, 6, tt.NumElements())
	require.EqualValues(t, 24, tt.Holder().Size())

	tt.Data()[0] = 1.5
	require.EqualValues(t, 1.5, tt.Data()[0])

	tt.Reset()
	require.True(t, tt.Empty())
	require.Nil(t, tt.Holder())
}

func TestResizeReplacesAllocation(t *testing.T) {
	t.Parallel()

	tt := New(4)
	first := tt.Holder()
	tt.Resize(8)
	require.NotSame(t, first, tt.Holder())
	require.EqualValues(t, 32, tt.Holder().Size())
}

func TestShareDataWith(t *testing.T) {
	t.Parallel()

	src := New(2, 2)
	src.Data()[3] = 7

	alias := &Tensor{}
	alias.ShareDataWith(src)
	require.Same(t, src.Holder(), alias.Holder())
	require.EqualValues(t, 7, alias.Data()[3])

	// Writes through the alias are visible through the original.
	alias.Data()[0] = 9
	require.EqualValues(t, 9, src.Data()[0])
}

func TestCopyFrom(t *testing.T) {
	t.Parallel()

	src := New(3)
	for i := range src.Data() {
		src.Data()[i] = float32(i)
	}

	dst := &Tensor{}
	dst.CopyFrom(src)
	require.NotSame(t, src.Holder(), dst.Holder())
	require.Equal(t, src.Data(), dst.Data())

	dst.CopyFrom(&Tensor{})
	require.True(t, dst.Empty())
}

func TestNilAllocationSize(t *testing.T) {
	t.Parallel()

	var a *Allocation
	require.EqualValues(t, 0, a.Size())
}

func TestConcatRows(t *testing.T) {
	t.Parallel()

	a := New(2, 3)
	b := New(1, 3)
	for i := range a.Data() {
		a.Data()[i] = 1
	}
	for i := range b.Data() {
		b.Data()[i] = 2
	}

	out, err := ConcatRows([]*Tensor{a, b})
	require.NoError(t, err)
	require.Equal(t, []int64{3, 3}, out.Dims())
	require.Equal(t, []float32{1, 1, 1, 1, 1, 1, 2, 2, 2}, out.Data())
}

func TestConcatRowsErrors(t *testing.T) {
	t.Parallel()

	_, err := ConcatRows(nil)
	require.Error(t, err)

	_, err = ConcatRows([]*Tensor{New(2, 3), &Tensor{}})
	require.Error(t, err)

	_, err = ConcatRows([]*Tensor{New(2, 3), New(2, 4)})
	require.Error(t, err)

	_, err = ConcatRows([]*Tensor{New(2, 3), New(2)})
	require.Error(t, err)
}

func TestSelectedRows(t *testing.T) {
	t.Parallel()

	sr := NewSelectedRows()
	sr.SetRows([]int64{3, 1})
	sr.SetHeight(10)
	sr.Value().Resize(2, 4)

	require.Equal(t, []int64{3, 1}, sr.Rows())
	require.EqualValues(t, 10, sr.Height())
	require.EqualValues(t, 8, sr.Value().NumElements())

	sr.Reset()
	require.Empty(t, sr.Rows())
	require.EqualValues(t, 0, sr.Height())
	require.True(t, sr.Value().Empty())
}
