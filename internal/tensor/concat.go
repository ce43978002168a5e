package tensor

import "fmt"

// ConcatRows stacks the given tensors along dimension 0 into a freshly
// allocated tensor. Every input must be non-empty and share trailing
// dims. Used to merge per-replica fetch results into one value.
func ConcatRows(parts []*Tensor) (*Tensor, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("tensor: nothing to concatenate")
	}
	first := parts[0]
	if first.Empty() {
		return nil, fmt.Errorf("tensor: cannot concatenate empty tensor")
	}
	if len(first.Dims()) == 0 {
		return nil, fmt.Errorf("tensor: cannot concatenate scalar tensor")
	}

	rows := int64(0)
	for i, p := range parts {
		if p.Empty() {
			return nil, fmt.Errorf("tensor: cannot concatenate empty tensor at index %d", i)
		}
		if len(p.Dims()) != len(first.Dims()) {
			return nil, fmt.Errorf("tensor: rank mismatch at index %d: %d vs %d", i, len(p.Dims()), len(first.Dims()))
		}
		for d := 1; d < len(first.Dims()); d++ {
			if p.Dims()[d] != first.Dims()[d] {
				return nil, fmt.Errorf("tensor: dim %d mismatch at index %d: %d vs %d", d, i, p.Dims()[d], first.Dims()[d])
			}
		}
		rows += p.Dims()[0]
	}

	dims := append([]int64{rows}, first.Dims()[1:]...)
	out := New(dims...)
	off := 0
	for _, p := range parts {
		off += copy(out.Data()[off:], p.Data())
	}
	return out, nil
}
