package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vk/tensorgrid/internal/ctxlog"
	"github.com/vk/tensorgrid/internal/device"
	"github.com/vk/tensorgrid/internal/graph"
	"github.com/vk/tensorgrid/internal/registry"
	"github.com/vk/tensorgrid/internal/scope"
	"github.com/vk/tensorgrid/internal/tensor"
)

// ParallelExecutor runs the operator graph over every replica's
// execution scope. Replicas fan out on an errgroup; within a replica,
// operators run on a worker pool gated by dependency counters. Fetched
// values are copied off through each replica's device context and merged
// by row concatenation.
type ParallelExecutor struct {
	graph      *graph.Graph
	execScopes []*scope.Scope
	places     []device.Place
	pool       *device.Pool
	workers    int

	// ops holds one compiled operator per graph.Ops() entry, shared
	// across replicas. Operators hold no per-run state.
	ops map[string]registry.Operator
}

// NewParallel compiles the graph's operators against the registry and
// returns an executor over the given replicas.
func NewParallel(g *graph.Graph, reg *registry.Registry, execScopes []*scope.Scope, places []device.Place, pool *device.Pool, workers int) (*ParallelExecutor, error) {
	if len(execScopes) != len(places) {
		return nil, fmt.Errorf("executor: %d execution scopes for %d places", len(execScopes), len(places))
	}
	if workers < 1 {
		workers = 1
	}

	ops := make(map[string]registry.Operator, len(g.Ops()))
	for _, desc := range g.Ops() {
		op, err := reg.NewOp(desc)
		if err != nil {
			return nil, fmt.Errorf("compiling graph: %w", err)
		}
		ops[desc.ID()] = op
	}

	return &ParallelExecutor{
		graph:      g,
		execScopes: execScopes,
		places:     places,
		pool:       pool,
		workers:    workers,
		ops:        ops,
	}, nil
}

// Run executes the graph on every replica and returns one merged tensor
// per fetch target, in request order.
func (e *ParallelExecutor) Run(ctx context.Context, fetchTargets []string) ([]*tensor.Tensor, error) {
	eg, runCtx := errgroup.WithContext(ctx)
	for i := range e.execScopes {
		i := i
		eg.Go(func() error {
			return e.runReplica(runCtx, i)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return e.fetchValues(ctx, fetchTargets)
}

// opState is the per-run bookkeeping for one operator on one replica.
type opState struct {
	desc     *graph.OpDesc
	depCount atomic.Int32
	skipOnce sync.Once
}

// runReplica executes all graph operators against one replica's
// execution scope, honoring dependency order.
func (e *ParallelExecutor) runReplica(ctx context.Context, idx int) error {
	logger := ctxlog.FromContext(ctx).With("replica", idx, "place", e.places[idx].String())
	ops := e.graph.Ops()
	if len(ops) == 0 {
		return nil
	}

	states := make(map[string]*opState, len(ops))
	dependents := make(map[string][]*opState, len(ops))
	for _, desc := range ops {
		states[desc.ID()] = &opState{desc: desc}
	}
	for _, desc := range ops {
		st := states[desc.ID()]
		deps := e.graph.Dependencies(desc)
		st.depCount.Store(int32(len(deps)))
		for _, dep := range deps {
			dependents[dep.ID()] = append(dependents[dep.ID()], st)
		}
	}

	readyChan := make(chan *opState, len(ops))
	for _, desc := range ops {
		if st := states[desc.ID()]; st.depCount.Load() == 0 {
			readyChan <- st
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(len(ops))

	var errOnce sync.Once
	var firstErr error

	// skip marks st and, recursively, everything downstream of it as not
	// runnable, releasing their WaitGroup slots exactly once.
	var skip func(st *opState, cause error)
	skip = func(st *opState, cause error) {
		st.skipOnce.Do(func() {
			logger.Debug("Skipping op.", "op", st.desc.ID(), "cause", cause)
			wg.Done()
			for _, dep := range dependents[st.desc.ID()] {
				skip(dep, cause)
			}
		})
	}

	worker := func(workerID int) {
		for st := range readyChan {
			if runCtx.Err() != nil {
				skip(st, runCtx.Err())
				continue
			}

			op := e.ops[st.desc.ID()]
			err := op.Run(runCtx, e.execScopes[idx], e.places[idx])
			if err != nil {
				err = fmt.Errorf("op '%s' on replica %d: %w", st.desc.ID(), idx, err)
				logger.Error("Op execution failed.", "op", st.desc.ID(), "workerID", workerID, "error", err)
				errOnce.Do(func() { firstErr = err })
				cancel()
				for _, dep := range dependents[st.desc.ID()] {
					skip(dep, err)
				}
				wg.Done()
				continue
			}

			for _, dep := range dependents[st.desc.ID()] {
				if dep.depCount.Add(-1) == 0 {
					readyChan <- dep
				}
			}
			wg.Done()
		}
	}

	workers := e.workers
	if workers > len(ops) {
		workers = len(ops)
	}
	for w := 0; w < workers; w++ {
		go worker(w)
	}

	wg.Wait()
	close(readyChan)

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// fetchValues copies each fetch target off every replica through the
// replica's device context, waits for the copies to land, and merges the
// per-replica parts by row concatenation.
func (e *ParallelExecutor) fetchValues(ctx context.Context, fetchTargets []string) ([]*tensor.Tensor, error) {
	if len(fetchTargets) == 0 {
		return nil, nil
	}

	parts := make([][]*tensor.Tensor, len(fetchTargets))
	for fi, name := range fetchTargets {
		parts[fi] = make([]*tensor.Tensor, len(e.execScopes))
		for ri, sc := range e.execScopes {
			v := sc.FindVar(name)
			if v == nil || !v.Initialized() {
				return nil, fmt.Errorf("fetch target %q is not materialized on replica %d", name, ri)
			}
			if v.Kind() != scope.KindTensor {
				return nil, fmt.Errorf("fetch target %q on replica %d has kind %v, only %v can be fetched",
					name, ri, v.Kind(), scope.KindTensor)
			}
			src := v.Tensor()
			dst := &tensor.Tensor{}
			parts[fi][ri] = dst
			e.pool.Get(e.places[ri]).Enqueue(func() {
				dst.CopyFrom(src)
			})
		}
	}

	// Block until every copy has landed before touching the parts.
	for _, place := range e.places {
		e.pool.Get(place).Wait()
	}

	results := make([]*tensor.Tensor, len(fetchTargets))
	for fi, name := range fetchTargets {
		merged, err := tensor.ConcatRows(parts[fi])
		if err != nil {
			return nil, fmt.Errorf("merging fetch target %q: %w", name, err)
		}
		results[fi] = merged
	}
	return results, nil
}
