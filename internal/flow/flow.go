// Package flow loads HCL flow files and evaluates step arguments against
// the outputs of previously executed steps.
package flow

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/ctxlog"
)

// Arguments holds the raw body of a step's arguments block so it can be
// decoded lazily, once the outputs of earlier steps are available.
type Arguments struct {
	Body hcl.Body `hcl:",remain"`
}

// Step is a single configured task invocation inside a flow.
type Step struct {
	TaskType  string     `hcl:"task_type,label"`
	Name      string     `hcl:"instance_name,label"`
	Arguments *Arguments `hcl:"arguments,block"`
}

// Flow is an ordered list of steps executed strictly in file order.
type Flow struct {
	Name  string  `hcl:"name,label"`
	Steps []*Step `hcl:"step,block"`
}

// File is the decoded content of one flow file.
type File struct {
	Flows []*Flow `hcl:"flow,block"`
}

// Load parses a single flow file and validates its structure.
func Load(ctx context.Context, path string) (*File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading flow file", "path", path)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse flow file %s: %w", path, diags)
	}

	var file File
	diags = gohcl.DecodeBody(hclFile.Body, nil, &file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode flow file %s: %w", path, diags)
	}

	if len(file.Flows) == 0 {
		return nil, fmt.Errorf("flow file %s defines no flow blocks", path)
	}
	for _, fl := range file.Flows {
		seen := make(map[string]struct{}, len(fl.Steps))
		for _, step := range fl.Steps {
			if _, dup := seen[step.Name]; dup {
				return nil, fmt.Errorf("flow %q defines step %q more than once", fl.Name, step.Name)
			}
			seen[step.Name] = struct{}{}
		}
	}

	logger.Debug("Loaded flow file", "path", path, "flows", len(file.Flows))
	return &file, nil
}

// Flow returns the named flow, or the first one when name is empty.
func (f *File) Flow(name string) (*Flow, error) {
	if name == "" {
		return f.Flows[0], nil
	}
	for _, fl := range f.Flows {
		if fl.Name == name {
			return fl, nil
		}
	}
	return nil, fmt.Errorf("flow %q not found", name)
}

// Decode evaluates the step's arguments block into the given params struct.
// A step without an arguments block decodes against an empty body so that
// optional params keep their zero values.
func (s *Step) Decode(params any, evalCtx *hcl.EvalContext) error {
	body := hcl.EmptyBody()
	if s.Arguments != nil {
		body = s.Arguments.Body
	}
	if diags := gohcl.DecodeBody(body, evalCtx, params); diags.HasErrors() {
		return fmt.Errorf("failed to decode arguments for step %q: %w", s.Name, diags)
	}
	return nil
}
