// Package config loads the engine's HCL configuration: the execution
// strategy, the variable registry, the operator graph, and the optional
// auxiliary metadata (setup programs, fused variable names).
package config

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/tensorgrid/internal/graph"
	"github.com/vk/tensorgrid/internal/scope"
)

// root is the raw top-level HCL schema.
type root struct {
	Execution *executionBlock  `hcl:"execution,block"`
	Variables []*variableBlock `hcl:"variable,block"`
	Ops       []*opBlock       `hcl:"op,block"`
	Programs  []*programBlock  `hcl:"program,block"`
	FusedVars []string         `hcl:"fused_vars,optional"`
}

type executionBlock struct {
	NumIterationsPerDrop int `hcl:"num_iterations_per_drop,optional"`
	Workers              int `hcl:"workers,optional"`
	Replicas             int `hcl:"replicas,optional"`
}

type variableBlock struct {
	Name        string `hcl:"name,label"`
	Kind        string `hcl:"kind"`
	Persistable bool   `hcl:"persistable,optional"`
}

type opBlock struct {
	Kind    string      `hcl:"kind,label"`
	Name    string      `hcl:"name,label"`
	Inputs  []string    `hcl:"inputs,optional"`
	Outputs []string    `hcl:"outputs,optional"`
	Attrs   *attrsBlock `hcl:"attrs,block"`
}

type attrsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type programBlock struct {
	Name string     `hcl:"name,label"`
	Ops  []*opBlock `hcl:"op,block"`
}

// Execution is the decoded execution strategy.
type Execution struct {
	// NumIterationsPerDrop is the number of runs between reclamation
	// passes; 1 reclaims after every run.
	NumIterationsPerDrop int
	// Workers is the operator worker count per replica.
	Workers int
	// Replicas is the number of parallel execution contexts.
	Replicas int
}

// Model is the fully translated configuration.
type Model struct {
	Execution Execution
	VarInfos  []scope.VariableInfo
	Ops       []*graph.OpDesc
	Programs  []*graph.Program
	FusedVars []string
}
