// Package memstat reports how much backing storage a scope tree
// references. It is diagnostic only: it never mutates scope state, and it
// deduplicates by allocation identity so aliased variables are counted
// once.
package memstat

import (
	"github.com/vk/tensorgrid/internal/scope"
	"github.com/vk/tensorgrid/internal/tensor"
)

// collectVariable adds the backing allocations reachable from one
// variable to the set. List-kind values contribute one entry per
// contained tensor. Uninitialized variables contribute nothing.
func collectVariable(v *scope.Variable, set map[*tensor.Allocation]struct{}) {
	switch v.Kind() {
	case scope.KindTensor:
		set[v.Tensor().Holder()] = struct{}{}
	case scope.KindSelectedRows:
		set[v.SelectedRows().Value().Holder()] = struct{}{}
	case scope.KindTensorList:
		for _, t := range v.TensorList() {
			set[t.Holder()] = struct{}{}
		}
	}
}

// collectScope walks s's local variables and then every child scope.
func collectScope(s *scope.Scope, set map[*tensor.Allocation]struct{}) {
	for _, name := range s.LocalVarNames() {
		collectVariable(s.FindLocalVar(name), set)
	}
	for _, kid := range s.Kids() {
		collectScope(kid, set)
	}
}

// ScopeVarMemorySize returns the total bytes referenced by distinct
// backing allocations reachable through s's local variables or
// recursively through its children. Nil (unbacked) allocations count as
// zero.
func ScopeVarMemorySize(s *scope.Scope) int64 {
	set := make(map[*tensor.Allocation]struct{})
	collectScope(s, set)
	var total int64
	for alloc := range set {
		total += alloc.Size()
	}
	return total
}
