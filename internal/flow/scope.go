package flow

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/task"
)

// Scope accumulates the outputs of completed steps and exposes them to HCL
// expressions as step.<instance_name>.<attribute>.
type Scope struct {
	steps map[string]cty.Value
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{steps: make(map[string]cty.Value)}
}

// AddStep records a finished step's outputs under its instance name. Each
// output struct contributes its cty-tagged fields as attributes; later
// outputs win on attribute collisions.
func (s *Scope) AddStep(name string, res *task.Result) error {
	attrs := make(map[string]cty.Value)
	for _, out := range res.Output {
		val, err := ToCtyValue(out)
		if err != nil {
			return fmt.Errorf("step %q output: %w", name, err)
		}
		if !val.Type().IsObjectType() {
			return fmt.Errorf("step %q output %T is not a struct", name, out)
		}
		for attr, attrVal := range val.AsValueMap() {
			attrs[attr] = attrVal
		}
	}
	s.steps[name] = cty.ObjectVal(attrs)
	return nil
}

// EvalContext builds the evaluation context for the next step's arguments.
func (s *Scope) EvalContext() *hcl.EvalContext {
	steps := make(map[string]cty.Value, len(s.steps))
	for name, val := range s.steps {
		steps[name] = val
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"step": cty.ObjectVal(steps),
		},
	}
}
