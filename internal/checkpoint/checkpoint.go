// Package checkpoint persists the values of persistable variables so a
// global scope can be pre-seeded before executor construction and
// snapshotted after a run. The engine's setup path never overwrites a
// pre-seeded variable, which is what makes loading a checkpoint before
// construction safe.
package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/vk/tensorgrid/internal/ctxlog"
	"github.com/vk/tensorgrid/internal/scope"
	"github.com/vk/tensorgrid/internal/tensor"
)

// Store saves and restores the persistable subset of a scope's variables.
type Store interface {
	Save(ctx context.Context, sc *scope.Scope, infos []scope.VariableInfo) error
	Load(ctx context.Context, sc *scope.Scope, infos []scope.VariableInfo) error
}

// tensorSnapshot is the wire form of one dense tensor.
type tensorSnapshot struct {
	Dims []int64   `msgpack:"dims"`
	Data []float32 `msgpack:"data"`
}

// varSnapshot is the wire form of one variable, tagged by kind.
type varSnapshot struct {
	Kind   string           `msgpack:"kind"`
	Dense  *tensorSnapshot  `msgpack:"dense,omitempty"`
	Rows   []int64          `msgpack:"rows,omitempty"`
	Height int64            `msgpack:"height,omitempty"`
	Value  *tensorSnapshot  `msgpack:"value,omitempty"`
	List   []tensorSnapshot `msgpack:"list,omitempty"`
}

// FSStore keeps one msgpack checkpoint file in a directory.
type FSStore struct {
	dir string
}

// NewFSStore creates a store rooted at dir, creating the directory when
// missing.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) path() string {
	return filepath.Join(s.dir, "variables.msgpack")
}

// Save snapshots every initialized persistable variable from sc.
func (s *FSStore) Save(ctx context.Context, sc *scope.Scope, infos []scope.VariableInfo) error {
	logger := ctxlog.FromContext(ctx)

	snaps := make(map[string]*varSnapshot)
	for _, info := range infos {
		if !info.Persistable {
			continue
		}
		v := sc.FindVar(info.Name)
		if v == nil || !v.Initialized() {
			continue
		}
		snap, err := snapshotVariable(v)
		if err != nil {
			return fmt.Errorf("variable %q: %w", info.Name, err)
		}
		snaps[info.Name] = snap
	}

	raw, err := msgpack.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	if err := os.WriteFile(s.path(), raw, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	logger.Debug("Checkpoint saved.", "path", s.path(), "variables", len(snaps))
	return nil
}

// Load pre-seeds sc with the checkpointed values of persistable
// variables. A missing checkpoint file is not an error: the engine
// simply initializes the variables itself.
func (s *FSStore) Load(ctx context.Context, sc *scope.Scope, infos []scope.VariableInfo) error {
	logger := ctxlog.FromContext(ctx)

	raw, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		logger.Debug("No checkpoint found, skipping pre-seed.", "path", s.path())
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading checkpoint: %w", err)
	}

	var snaps map[string]*varSnapshot
	if err := msgpack.Unmarshal(raw, &snaps); err != nil {
		return fmt.Errorf("decoding checkpoint: %w", err)
	}

	loaded := 0
	for _, info := range infos {
		if !info.Persistable {
			continue
		}
		snap, ok := snaps[info.Name]
		if !ok {
			continue
		}
		if err := restoreVariable(sc.Var(info.Name), snap); err != nil {
			return fmt.Errorf("variable %q: %w", info.Name, err)
		}
		loaded++
	}
	logger.Debug("Checkpoint loaded.", "path", s.path(), "variables", loaded)
	return nil
}

func snapshotTensor(t *tensor.Tensor) *tensorSnapshot {
	return &tensorSnapshot{
		Dims: append([]int64(nil), t.Dims()...),
		Data: append([]float32(nil), t.Data()...),
	}
}

func restoreTensor(t *tensor.Tensor, snap *tensorSnapshot) {
	t.Resize(snap.Dims...)
	copy(t.Data(), snap.Data)
}

func snapshotVariable(v *scope.Variable) (*varSnapshot, error) {
	switch v.Kind() {
	case scope.KindTensor:
		return &varSnapshot{Kind: v.Kind().String(), Dense: snapshotTensor(v.Tensor())}, nil
	case scope.KindSelectedRows:
		sr := v.SelectedRows()
		return &varSnapshot{
			Kind:   v.Kind().String(),
			Rows:   append([]int64(nil), sr.Rows()...),
			Height: sr.Height(),
			Value:  snapshotTensor(sr.Value()),
		}, nil
	case scope.KindTensorList:
		snap := &varSnapshot{Kind: v.Kind().String()}
		for _, t := range v.TensorList() {
			snap.List = append(snap.List, *snapshotTensor(t))
		}
		return snap, nil
	default:
		return nil, fmt.Errorf("cannot snapshot kind %v", v.Kind())
	}
}

func restoreVariable(v *scope.Variable, snap *varSnapshot) error {
	kind, err := scope.KindFromString(snap.Kind)
	if err != nil {
		return err
	}
	v.Initialize(kind)
	switch kind {
	case scope.KindTensor:
		restoreTensor(v.Tensor(), snap.Dense)
	case scope.KindSelectedRows:
		sr := v.SelectedRows()
		sr.SetRows(snap.Rows)
		sr.SetHeight(snap.Height)
		restoreTensor(sr.Value(), snap.Value)
	case scope.KindTensorList:
		list := make([]*tensor.Tensor, 0, len(snap.List))
		for i := range snap.List {
			t := &tensor.Tensor{}
			restoreTensor(t, &snap.List[i])
			list = append(list, t)
		}
		v.SetTensorList(list)
	}
	return nil
}
