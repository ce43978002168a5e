// Package executor contains the graph execution engines: the parallel
// per-replica executor that actually runs operators, and the
// scope-buffered executor that wraps it to manage per-iteration variable
// storage across repeated runs.
package executor

import (
	"context"

	"github.com/vk/tensorgrid/internal/tensor"
)

// GraphExecutor runs the graph once and returns the materialized values
// for the requested fetch targets, in request order. It blocks until
// every fetch value is materialized or a failure occurs.
type GraphExecutor interface {
	Run(ctx context.Context, fetchTargets []string) ([]*tensor.Tensor, error)
}

// Strategy configures how the scope-buffered executor trades peak memory
// for teardown overhead.
type Strategy struct {
	// NumIterationsPerDrop is the number of Run calls between automatic
	// reclamation passes. 1 reclaims after every iteration.
	NumIterationsPerDrop int

	// Workers is the number of concurrent operator workers per replica.
	Workers int
}
