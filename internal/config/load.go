package config

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/tensorgrid/internal/ctxlog"
	"github.com/vk/tensorgrid/internal/graph"
	"github.com/vk/tensorgrid/internal/scope"
)

const (
	defaultIterationsPerDrop = 1
	defaultWorkers           = 4
	defaultReplicas          = 1
)

// Load parses and translates the HCL configuration file at path.
func Load(ctx context.Context, path string) (*Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}
	return translate(ctx, file.Body)
}

// LoadBytes parses and translates an in-memory HCL configuration.
// Filename is used for diagnostics only.
func LoadBytes(ctx context.Context, src []byte, filename string) (*Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}
	return translate(ctx, file.Body)
}

func translate(ctx context.Context, body hcl.Body) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	var raw root
	if diags := gohcl.DecodeBody(body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decoding configuration: %w", diags)
	}

	model := &Model{
		Execution: Execution{
			NumIterationsPerDrop: defaultIterationsPerDrop,
			Workers:              defaultWorkers,
			Replicas:             defaultReplicas,
		},
		FusedVars: raw.FusedVars,
	}
	if raw.Execution != nil {
		if raw.Execution.NumIterationsPerDrop != 0 {
			model.Execution.NumIterationsPerDrop = raw.Execution.NumIterationsPerDrop
		}
		if raw.Execution.Workers != 0 {
			model.Execution.Workers = raw.Execution.Workers
		}
		if raw.Execution.Replicas != 0 {
			model.Execution.Replicas = raw.Execution.Replicas
		}
	}
	if model.Execution.NumIterationsPerDrop < 1 {
		return nil, fmt.Errorf("execution: num_iterations_per_drop must be positive, got %d", model.Execution.NumIterationsPerDrop)
	}
	if model.Execution.Replicas < 1 {
		return nil, fmt.Errorf("execution: replicas must be positive, got %d", model.Execution.Replicas)
	}

	for _, vb := range raw.Variables {
		kind, err := scope.KindFromString(vb.Kind)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
		}
		model.VarInfos = append(model.VarInfos, scope.VariableInfo{
			Name:        vb.Name,
			Kind:        kind,
			Persistable: vb.Persistable,
		})
	}

	for _, ob := range raw.Ops {
		desc, err := translateOp(ob)
		if err != nil {
			return nil, err
		}
		model.Ops = append(model.Ops, desc)
	}

	for _, pb := range raw.Programs {
		var block graph.Block
		for _, ob := range pb.Ops {
			desc, err := translateOp(ob)
			if err != nil {
				return nil, fmt.Errorf("program %q: %w", pb.Name, err)
			}
			block = append(block, desc)
		}
		model.Programs = append(model.Programs, &graph.Program{Blocks: []graph.Block{block}})
	}

	logger.Debug("Configuration translated into model.",
		"variables", len(model.VarInfos), "ops", len(model.Ops), "programs", len(model.Programs))
	return model, nil
}

// translateOp evaluates an op block's attrs into concrete cty values.
// Attribute expressions must be constant: the graph is static and there
// is no evaluation context at load time.
func translateOp(ob *opBlock) (*graph.OpDesc, error) {
	desc := &graph.OpDesc{
		Kind:    ob.Kind,
		Name:    ob.Name,
		Inputs:  ob.Inputs,
		Outputs: ob.Outputs,
		Attrs:   map[string]cty.Value{},
	}
	if ob.Attrs == nil {
		return desc, nil
	}

	attrs, diags := ob.Attrs.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("op '%s.%s': reading attrs: %w", ob.Kind, ob.Name, diags)
	}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("op '%s.%s': evaluating attr %q: %w", ob.Kind, ob.Name, name, diags)
		}
		desc.Attrs[name] = val
	}
	return desc, nil
}
