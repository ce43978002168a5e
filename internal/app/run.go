package app

import (
	"context"
	"fmt"

	"github.com/vk/tensorgrid/internal/checkpoint"
	"github.com/vk/tensorgrid/internal/ctxlog"
	"github.com/vk/tensorgrid/internal/device"
	"github.com/vk/tensorgrid/internal/executor"
	"github.com/vk/tensorgrid/internal/graph"
	"github.com/vk/tensorgrid/internal/scope"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	g, err := graph.Build(a.model.Ops)
	if err != nil {
		return fmt.Errorf("failed to build operator graph: %w", err)
	}
	g.SetPrograms(a.model.Programs)
	g.SetFusedVars(a.model.FusedVars)
	a.logger.Debug("Operator graph built.", "op_count", len(g.Ops()))

	if err := a.registry.ValidateGraph(ctx, g); err != nil {
		return err
	}

	replicas := a.model.Execution.Replicas
	globalScopes := make([]*scope.Scope, replicas)
	execScopes := make([]*scope.Scope, replicas)
	places := make([]device.Place, replicas)
	for i := 0; i < replicas; i++ {
		globalScopes[i] = scope.New()
		execScopes[i] = globalScopes[i].NewKid()
		places[i] = device.CPUPlace(i)
	}

	var store checkpoint.Store
	if appConfig.CheckpointDir != "" {
		fsStore, err := checkpoint.NewFSStore(appConfig.CheckpointDir)
		if err != nil {
			return err
		}
		store = fsStore
		for i := 0; i < replicas; i++ {
			if err := store.Load(ctx, globalScopes[i], a.model.VarInfos); err != nil {
				return fmt.Errorf("pre-seeding replica %d: %w", i, err)
			}
		}
	}

	pool := device.NewPool()
	underlying, err := executor.NewParallel(g, a.registry, execScopes, places, pool, a.model.Execution.Workers)
	if err != nil {
		return err
	}

	strategy := executor.Strategy{
		NumIterationsPerDrop: a.model.Execution.NumIterationsPerDrop,
		Workers:              a.model.Execution.Workers,
	}
	exec, err := executor.NewScopeBuffered(ctx, strategy, globalScopes, execScopes,
		a.model.VarInfos, places, pool, g, a.registry, underlying)
	if err != nil {
		return fmt.Errorf("constructing executor: %w", err)
	}

	a.logger.Info("🚀 Starting execution.",
		"iterations", appConfig.Iterations,
		"replicas", replicas,
		"num_iterations_per_drop", strategy.NumIterationsPerDrop)

	for iter := 0; iter < appConfig.Iterations; iter++ {
		fetched, err := exec.Run(ctx, appConfig.Fetch)
		if err != nil {
			return fmt.Errorf("iteration %d failed: %w", iter, err)
		}
		for fi, name := range appConfig.Fetch {
			t := fetched[fi]
			a.logger.Info("Fetched value.",
				"iteration", iter, "target", name, "dims", fmt.Sprint(t.Dims()), "elements", t.NumElements())
		}
	}
	a.logger.Info("🏁 Execution finished.")

	if store != nil {
		if err := store.Save(ctx, globalScopes[0], a.model.VarInfos); err != nil {
			return fmt.Errorf("saving checkpoint: %w", err)
		}
	}
	return nil
}
