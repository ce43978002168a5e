// Package graph models the operator graph the engine executes: operator
// descriptors, the data dependencies between them derived from the
// variables they read and write, and the auxiliary metadata (one-time
// setup programs, fused variable names) some graphs carry.
package graph

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// OpDesc describes one operator instance: its registered kind, an
// instance name, the variable names it reads and writes, and its typed
// attributes.
type OpDesc struct {
	Kind    string
	Name    string
	Inputs  []string
	Outputs []string
	Attrs   map[string]cty.Value
}

// ID returns the unique node identifier for the operator instance.
func (o *OpDesc) ID() string {
	return fmt.Sprintf("%s.%s", o.Kind, o.Name)
}

// Attr returns the named attribute, or cty.NilVal when absent.
func (o *OpDesc) Attr(name string) cty.Value {
	if v, ok := o.Attrs[name]; ok {
		return v
	}
	return cty.NilVal
}

// Block is an ordered list of operators executed sequentially.
type Block []*OpDesc

// Program is a fragment of auxiliary setup work attached to a graph. Only
// the first block is executed by the engine's one-time initialization.
type Program struct {
	Blocks []Block
}

// Graph is a validated operator graph plus its auxiliary metadata.
type Graph struct {
	ops  []*OpDesc
	deps map[string][]*OpDesc

	programs  []*Program
	fusedVars []string
}

// Build derives dependency edges from the declaration order of ops and
// the variables they touch: each op depends on the most recent writer of
// every variable it reads, and on the previous writer of every variable
// it overwrites. It fails on duplicate op IDs.
func Build(ops []*OpDesc) (*Graph, error) {
	g := &Graph{
		ops:  ops,
		deps: make(map[string][]*OpDesc, len(ops)),
	}

	seen := make(map[string]struct{}, len(ops))
	lastWriter := make(map[string]*OpDesc)
	for _, op := range ops {
		if _, dup := seen[op.ID()]; dup {
			return nil, fmt.Errorf("duplicate op %q in graph", op.ID())
		}
		seen[op.ID()] = struct{}{}

		depSet := make(map[*OpDesc]struct{})
		for _, in := range op.Inputs {
			if w, ok := lastWriter[in]; ok && w != op {
				depSet[w] = struct{}{}
			}
		}
		for _, out := range op.Outputs {
			// Write-after-write: keep producer order for a shared output.
			if w, ok := lastWriter[out]; ok && w != op {
				depSet[w] = struct{}{}
			}
		}
		for dep := range depSet {
			g.deps[op.ID()] = append(g.deps[op.ID()], dep)
		}
		for _, out := range op.Outputs {
			lastWriter[out] = op
		}
	}

	if err := g.detectCycles(); err != nil {
		return nil, err
	}
	return g, nil
}

// Ops returns the graph's operators in declaration order.
func (g *Graph) Ops() []*OpDesc { return g.ops }

// Dependencies returns the ops that must complete before the given op.
func (g *Graph) Dependencies(op *OpDesc) []*OpDesc {
	return g.deps[op.ID()]
}

// detectCycles runs a depth-first search over the dependency edges,
// failing on the first back edge it finds.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(op *OpDesc) error
	visit = func(op *OpDesc) error {
		id := op.ID()
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("cycle detected involving op %q", id)
		}
		temporary[id] = true
		for _, dep := range g.deps[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, op := range g.ops {
		if !permanent[op.ID()] {
			if err := visit(op); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetPrograms attaches one-time setup program fragments to the graph.
func (g *Graph) SetPrograms(programs []*Program) { g.programs = programs }

// Programs returns the attached setup fragments, nil when the graph
// carries none.
func (g *Graph) Programs() []*Program { return g.programs }

// SetFusedVars attaches the names of fused variables that need dense
// tensor slots in every execution scope.
func (g *Graph) SetFusedVars(names []string) { g.fusedVars = names }

// FusedVars returns the attached fused variable names.
func (g *Graph) FusedVars() []string { return g.fusedVars }
