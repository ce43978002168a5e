// Package scope implements the hierarchical variable containers the
// execution engine reads and writes. A Scope maps names to polymorphic
// Variables and owns its child scopes; lookups fall through to the parent
// so an execution scope can see the persistent state of its global scope.
package scope

import (
	"fmt"

	"github.com/vk/tensorgrid/internal/tensor"
)

// Kind identifies the shape of value a variable holds. The set is closed:
// initialization and accounting switch on it explicitly.
type Kind int

const (
	// KindNone marks a variable that has been created but not initialized,
	// or one whose storage has been cleared.
	KindNone Kind = iota
	// KindTensor holds a single dense tensor.
	KindTensor
	// KindSelectedRows holds a sparse row set.
	KindSelectedRows
	// KindTensorList holds an ordered sequence of dense tensors.
	KindTensorList
)

// String returns the config-facing name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTensor:
		return "tensor"
	case KindSelectedRows:
		return "selected_rows"
	case KindTensorList:
		return "tensor_list"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindFromString parses a config-facing kind name.
func KindFromString(s string) (Kind, error) {
	switch s {
	case "tensor":
		return KindTensor, nil
	case "selected_rows":
		return KindSelectedRows, nil
	case "tensor_list":
		return KindTensorList, nil
	default:
		return KindNone, fmt.Errorf("unknown variable kind %q", s)
	}
}

// Variable is a named slot in a scope holding one value of a closed set
// of kinds. The handle stays valid across Clear/Initialize cycles, which
// is what lets the executor reuse slots across reclamation passes.
type Variable struct {
	kind  Kind
	dense *tensor.Tensor
	rows  *tensor.SelectedRows
	list  []*tensor.Tensor
}

// Kind returns the variable's current kind, KindNone if uninitialized.
func (v *Variable) Kind() Kind { return v.kind }

// Initialize gives the variable an empty value of the requested kind,
// discarding whatever it held before.
func (v *Variable) Initialize(kind Kind) {
	v.dense = nil
	v.rows = nil
	v.list = nil
	v.kind = kind
	switch kind {
	case KindTensor:
		v.dense = &tensor.Tensor{}
	case KindSelectedRows:
		v.rows = tensor.NewSelectedRows()
	case KindTensorList:
		v.list = []*tensor.Tensor{}
	case KindNone:
		// explicit de-initialization
	default:
		panic(fmt.Sprintf("scope: cannot initialize variable of kind %v", kind))
	}
}

// Tensor returns the dense tensor held by the variable. It panics when
// the variable holds a different kind: callers reach here through the
// VariableInfo registry, so a mismatch means a broken invariant.
func (v *Variable) Tensor() *tensor.Tensor {
	if v.kind != KindTensor {
		panic(fmt.Sprintf("scope: variable holds %v, not %v", v.kind, KindTensor))
	}
	return v.dense
}

// SelectedRows returns the sparse value held by the variable, panicking
// on a kind mismatch.
func (v *Variable) SelectedRows() *tensor.SelectedRows {
	if v.kind != KindSelectedRows {
		panic(fmt.Sprintf("scope: variable holds %v, not %v", v.kind, KindSelectedRows))
	}
	return v.rows
}

// TensorList returns the tensor sequence held by the variable, panicking
// on a kind mismatch.
func (v *Variable) TensorList() []*tensor.Tensor {
	if v.kind != KindTensorList {
		panic(fmt.Sprintf("scope: variable holds %v, not %v", v.kind, KindTensorList))
	}
	return v.list
}

// SetTensorList replaces the tensor sequence, panicking on a kind mismatch.
func (v *Variable) SetTensorList(list []*tensor.Tensor) {
	if v.kind != KindTensorList {
		panic(fmt.Sprintf("scope: variable holds %v, not %v", v.kind, KindTensorList))
	}
	v.list = list
}

// Initialized reports whether the variable currently holds a value.
func (v *Variable) Initialized() bool { return v.kind != KindNone }

// Clear releases the variable's storage and returns it to the
// uninitialized state. The Variable handle itself remains valid and can
// be re-initialized later.
func (v *Variable) Clear() {
	v.kind = KindNone
	v.dense = nil
	v.rows = nil
	v.list = nil
}
