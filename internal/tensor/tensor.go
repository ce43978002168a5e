// Package tensor implements the dense and sparse value types held by
// scope variables, backed by explicit allocations so that storage can be
// shared, accounted for, and released independently of variable bindings.
package tensor

import "fmt"

// elemSize is the byte width of a single element. All tensors carry
// float32 data.
const elemSize = 4

// Allocation is a backing memory block for tensor data. Allocations are
// compared by identity: two tensors aliasing the same block hold the same
// *Allocation, which is what memory accounting deduplicates on.
type Allocation struct {
	data []float32
}

// NewAllocation reserves a block holding n elements.
func NewAllocation(n int64) *Allocation {
	return &Allocation{data: make([]float32, n)}
}

// Size returns the block size in bytes. A nil allocation has size zero.
func (a *Allocation) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.data)) * elemSize
}

// Tensor is a dense n-dimensional array. A zero-value Tensor is empty:
// it has no dims and no backing allocation.
type Tensor struct {
	dims  []int64
	alloc *Allocation
}

// New creates a tensor with the given dims and a fresh backing allocation.
func New(dims ...int64) *Tensor {
	t := &Tensor{}
	t.Resize(dims...)
	return t
}

// Resize sets the tensor's dims and replaces its backing allocation with
// a fresh zeroed block of the matching size.
func (t *Tensor) Resize(dims ...int64) {
	n := int64(1)
	for _, d := range dims {
		if d < 0 {
			panic(fmt.Sprintf("tensor: negative dim %d", d))
		}
		n *= d
	}
	t.dims = append([]int64(nil), dims...)
	t.alloc = NewAllocation(n)
}

// Dims returns the tensor's dimensions. The returned slice must not be
// mutated.
func (t *Tensor) Dims() []int64 { return t.dims }

// NumElements returns the product of the dims, or 0 for an empty tensor.
func (t *Tensor) NumElements() int64 {
	if t.alloc == nil {
		return 0
	}
	return int64(len(t.alloc.data))
}

// Holder returns the backing allocation, or nil for an empty tensor.
func (t *Tensor) Holder() *Allocation { return t.alloc }

// Data returns the element storage. Mutations write through to every
// tensor sharing the allocation.
func (t *Tensor) Data() []float32 {
	if t.alloc == nil {
		return nil
	}
	return t.alloc.data
}

// Empty reports whether the tensor has no backing allocation.
func (t *Tensor) Empty() bool { return t.alloc == nil }

// Reset releases the backing allocation and clears the dims, returning
// the tensor to its empty state. The Tensor value itself stays usable.
func (t *Tensor) Reset() {
	t.dims = nil
	t.alloc = nil
}

// ShareDataWith makes t an alias of src: same dims, same allocation.
func (t *Tensor) ShareDataWith(src *Tensor) {
	t.dims = src.dims
	t.alloc = src.alloc
}

// CopyFrom replaces t's contents with a deep copy of src.
func (t *Tensor) CopyFrom(src *Tensor) {
	if src.Empty() {
		t.Reset()
		return
	}
	t.Resize(src.dims...)
	copy(t.alloc.data, src.alloc.data)
}
