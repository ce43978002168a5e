package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/tensorgrid/internal/ctxlog"
	"github.com/vk/tensorgrid/internal/graph"
)

// ValidateGraph performs a strict parity check between a graph and the
// registered operator kinds: every op in the graph, and every op in each
// attached setup program's blocks, must resolve to a factory. Collecting
// all failures at once makes a broken graph fail with one report instead
// of one error per run attempt.
func (r *Registry) ValidateGraph(ctx context.Context, g *graph.Graph) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	check := func(op *graph.OpDesc, where string) {
		if !r.Kinds(op.Kind) {
			errs = append(errs, fmt.Sprintf("%s: op '%s' has unregistered kind '%s'", where, op.ID(), op.Kind))
		}
	}

	for _, op := range g.Ops() {
		check(op, "graph")
	}
	for i, program := range g.Programs() {
		for j, block := range program.Blocks {
			for _, op := range block {
				check(op, fmt.Sprintf("program %d block %d", i, j))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("graph validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Graph validation passed.", "ops", len(g.Ops()), "programs", len(g.Programs()))
	return nil
}
