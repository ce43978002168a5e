package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/vk/tensorgrid/internal/ctxlog"
	"github.com/vk/tensorgrid/internal/device"
	"github.com/vk/tensorgrid/internal/graph"
	"github.com/vk/tensorgrid/internal/memstat"
	"github.com/vk/tensorgrid/internal/registry"
	"github.com/vk/tensorgrid/internal/scope"
	"github.com/vk/tensorgrid/internal/tensor"
)

// pendingVar is one temporary slot that must be re-initialized to an
// empty value of its kind at the start of the first iteration after a
// drop.
type pendingVar struct {
	v    *scope.Variable
	kind scope.Kind
}

// ScopeBufferedExecutor wraps an underlying GraphExecutor and manages the
// lifetime of per-iteration variable storage: one global scope per
// replica for persistent state, one execution scope per replica for
// temporaries, and a counter-driven reclamation cycle that keeps variable
// handles stable while periodically releasing their backing storage.
type ScopeBufferedExecutor struct {
	strategy   Strategy
	underlying GraphExecutor
	graph      *graph.Graph
	reg        *registry.Registry
	pool       *device.Pool

	globalScopes []*scope.Scope
	execScopes   []*scope.Scope
	varInfos     []scope.VariableInfo
	places       []device.Place

	// preserveVars and pendingInit are computed once at construction and
	// stable afterwards; drops clear exactly these handles in place and
	// initialization repopulates exactly these handles next epoch.
	preserveVars []map[*scope.Variable]struct{}
	pendingInit  [][]pendingVar

	dropCounter int
}

// NewScopeBuffered constructs the executor and prepares every replica's
// scopes: persistent variables are created (or kept, when pre-seeded) in
// the global scopes, temporary slots are created in the execution scopes
// and recorded in the preserve sets.
func NewScopeBuffered(
	ctx context.Context,
	strategy Strategy,
	globalScopes []*scope.Scope,
	execScopes []*scope.Scope,
	varInfos []scope.VariableInfo,
	places []device.Place,
	pool *device.Pool,
	g *graph.Graph,
	reg *registry.Registry,
	underlying GraphExecutor,
) (*ScopeBufferedExecutor, error) {
	if len(globalScopes) != len(execScopes) {
		return nil, fmt.Errorf("executor: %d global scopes for %d execution scopes", len(globalScopes), len(execScopes))
	}
	if len(places) != len(globalScopes) {
		return nil, fmt.Errorf("executor: %d places for %d replicas", len(places), len(globalScopes))
	}
	if strategy.NumIterationsPerDrop < 1 {
		return nil, fmt.Errorf("executor: num_iterations_per_drop must be positive, got %d", strategy.NumIterationsPerDrop)
	}
	if err := checkVarInfos(varInfos); err != nil {
		return nil, err
	}

	e := &ScopeBufferedExecutor{
		strategy:     strategy,
		underlying:   underlying,
		graph:        g,
		reg:          reg,
		pool:         pool,
		globalScopes: globalScopes,
		execScopes:   execScopes,
		varInfos:     varInfos,
		places:       places,
	}
	if err := e.prepareLocalExeScopes(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// checkVarInfos rejects registries declaring the same name twice with
// conflicting kinds or persistability.
func checkVarInfos(infos []scope.VariableInfo) error {
	seen := make(map[string]scope.VariableInfo, len(infos))
	for _, info := range infos {
		prev, ok := seen[info.Name]
		if !ok {
			seen[info.Name] = info
			continue
		}
		if prev.Kind != info.Kind || prev.Persistable != info.Persistable {
			return fmt.Errorf("variable %q declared twice with conflicting info (%v/%v vs %v/%v)",
				info.Name, prev.Kind, prev.Persistable, info.Kind, info.Persistable)
		}
	}
	return nil
}

// prepareLocalExeScopes populates each replica's preserve set and pending
// list and makes sure every persistent variable exists in the global
// scope exactly once. Pre-seeded persistent variables are kept untouched
// but their kind must match the registry.
func (e *ScopeBufferedExecutor) prepareLocalExeScopes(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	e.preserveVars = make([]map[*scope.Variable]struct{}, len(e.globalScopes))
	e.pendingInit = make([][]pendingVar, len(e.globalScopes))

	for i := range e.globalScopes {
		global, exec := e.globalScopes[i], e.execScopes[i]
		e.preserveVars[i] = make(map[*scope.Variable]struct{})

		for _, info := range e.varInfos {
			if info.Persistable {
				if v := global.FindVar(info.Name); v != nil {
					if v.Initialized() && v.Kind() != info.Kind {
						return fmt.Errorf("persistent variable %q pre-seeded with kind %v, registry declares %v",
							info.Name, v.Kind(), info.Kind)
					}
					logger.Debug("Persistent variable initialized beforehand in global scope, skipped.",
						"variable", info.Name, "replica", i)
					continue
				}
				global.Var(info.Name).Initialize(info.Kind)
				continue
			}

			tmp := exec.Var(info.Name)
			e.preserveVars[i][tmp] = struct{}{}
			e.pendingInit[i] = append(e.pendingInit[i], pendingVar{v: tmp, kind: info.Kind})
		}
	}
	return nil
}

// initVariables restores every pending temporary to an empty value of its
// declared kind and performs the graph's one-time structural setup:
// fused-variable slots and auxiliary setup programs. Called only when the
// drop counter is zero, so the whole body runs once per epoch.
func (e *ScopeBufferedExecutor) initVariables(ctx context.Context) error {
	for _, pending := range e.pendingInit {
		for _, p := range pending {
			p.v.Initialize(p.kind)
		}
	}

	if e.graph == nil {
		return nil
	}

	if fused := e.graph.FusedVars(); len(fused) > 0 {
		for _, sc := range e.execScopes {
			for _, name := range fused {
				v := sc.Var(name)
				if !v.Initialized() {
					v.Initialize(scope.KindTensor)
				}
			}
		}
	}

	for _, program := range e.graph.Programs() {
		if len(program.Blocks) == 0 {
			continue
		}
		for _, desc := range program.Blocks[0] {
			op, err := e.reg.NewOp(desc)
			if err != nil {
				return fmt.Errorf("building setup op: %w", err)
			}
			for i, sc := range e.execScopes {
				if err := op.Run(ctx, sc, e.places[i]); err != nil {
					return fmt.Errorf("setup op '%s' on replica %d: %w", desc.ID(), i, err)
				}
			}
		}
	}
	return nil
}

// Run executes one iteration: initialize temporaries when starting a
// fresh epoch, delegate to the underlying executor, account, and drop
// accumulated state when the configured iteration count is reached. A
// delegated failure is captured so that accounting and the drop decision
// still run, then returned to the caller unchanged.
func (e *ScopeBufferedExecutor) Run(ctx context.Context, fetchTargets []string) ([]*tensor.Tensor, error) {
	logger := ctxlog.FromContext(ctx)

	if e.dropCounter == 0 {
		if err := e.initVariables(ctx); err != nil {
			return nil, err
		}
	}

	fetched, runErr := e.underlying.Run(ctx, fetchTargets)

	e.logScopeSizes(ctx, logger, "before drop decision")

	e.dropCounter++
	if e.dropCounter == e.strategy.NumIterationsPerDrop {
		e.DropLocalExeScopes(ctx)
	}

	e.logScopeSizes(ctx, logger, "after drop decision")

	if runErr != nil {
		return nil, runErr
	}
	return fetched, nil
}

// logScopeSizes emits per-replica scope memory accounting at debug level.
func (e *ScopeBufferedExecutor) logScopeSizes(ctx context.Context, logger *slog.Logger, stage string) {
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	for i, sc := range e.execScopes {
		size := memstat.ScopeVarMemorySize(sc)
		logger.Debug("Execution scope memory.",
			"stage", stage, "replica", i, "size", humanize.IBytes(uint64(size)))
	}
}

// DropLocalExeScopes reclaims temporary storage on every replica without
// invalidating preserved variable handles. It blocks until each replica
// place's outstanding device work completes before touching any scope.
func (e *ScopeBufferedExecutor) DropLocalExeScopes(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	e.dropCounter = 0

	for _, place := range e.places {
		e.pool.Get(place).Wait()
	}

	for i, sc := range e.execScopes {
		sc.EraseVarsExcept(e.preserveVars[i])
		sc.DropKids()
		for v := range e.preserveVars[i] {
			v.Clear()
		}
		logger.Debug("Dropped local execution scope.", "replica", i, "place", e.places[i].String())
	}
}

// NeedFreshExecScope reports whether the next Run call will reinitialize
// temporaries, which is when a caller may swap in brand-new execution
// scopes (for example after a replica topology change).
func (e *ScopeBufferedExecutor) NeedFreshExecScope() bool {
	return e.dropCounter == 0
}
