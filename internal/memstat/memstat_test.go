package memstat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/tensorgrid/internal/scope"
	"github.com/vk/tensorgrid/internal/tensor"
)

func TestEmptyScopeReportsZero(t *testing.T) {
	t.Parallel()

	require.EqualValues(t, 0, ScopeVarMemorySize(scope.New()))
}

func TestUninitializedAndUnbackedContributeZero(t *testing.T) {
	t.Parallel()

	s := scope.New()
	s.Var("uninitialized")
	v := s.Var("empty_tensor")
	v.Initialize(scope.KindTensor) // no allocation yet

	require.EqualValues(t, 0, ScopeVarMemorySize(s))
}

func TestSharedAllocationCountedOnce(t *testing.T) {
	t.Parallel()

	s := scope.New()
	a := s.Var("a")
	a.Initialize(scope.KindTensor)
	a.Tensor().Resize(8) // 32 bytes

	b := s.Var("b")
	b.Initialize(scope.KindTensor)
	b.Tensor().ShareDataWith(a.Tensor())

	require.EqualValues(t, 32, ScopeVarMemorySize(s), "aliased variables must not double-count")
}

func TestKindsAndKidsAreWalked(t *testing.T) {
	t.Parallel()

	s := scope.New()

	dense := s.Var("dense")
	dense.Initialize(scope.KindTensor)
	dense.Tensor().Resize(2) // 8 bytes

	sparse := s.Var("sparse")
	sparse.Initialize(scope.KindSelectedRows)
	sparse.SelectedRows().Value().Resize(1, 4) // 16 bytes

	list := s.Var("list")
	list.Initialize(scope.KindTensorList)
	list.SetTensorList([]*tensor.Tensor{tensor.New(3), tensor.New(1)}) // 12 + 4 bytes

	kid := s.NewKid()
	kidVar := kid.Var("kid_tensor")
	kidVar.Initialize(scope.KindTensor)
	kidVar.Tensor().Resize(5) // 20 bytes

	require.EqualValues(t, 8+16+12+4+20, ScopeVarMemorySize(s))
}

func TestAccountingDoesNotMutate(t *testing.T) {
	t.Parallel()

	s := scope.New()
	v := s.Var("x")
	v.Initialize(scope.KindTensor)
	v.Tensor().Resize(4)
	v.Tensor().Data()[2] = 42

	first := ScopeVarMemorySize(s)
	second := ScopeVarMemorySize(s)
	require.Equal(t, first, second)
	require.EqualValues(t, 42, v.Tensor().Data()[2])
	require.Equal(t, []string{"x"}, s.LocalVarNames())
}
