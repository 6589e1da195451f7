// Package sim implements the simulation pipeline tasks: sim_configure
// builds the descriptor and prepares the work root, sim_build compiles the
// design, sim_run executes the built model. Build and run re-derive their
// descriptor from the file persisted at configure time; a missing
// descriptor fails loudly rather than masking the skipped stage.
package sim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zclconf/go-cty/cty"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/backend"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/ctxlog"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/edam"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/fileset"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/task"
)

// Task names registered by this package.
const (
	ConfigureTaskName = "sim_configure"
	BuildTaskName     = "sim_build"
	RunTaskName       = "sim_run"
)

// ConfigureParams are sim_configure's input parameters, typically fed from
// a core_resolve output.
type ConfigureParams struct {
	// Design names the design; it becomes the descriptor name.
	Design string `hcl:"design"`
	// Files is the converted file list.
	Files []fileset.File `hcl:"files,optional"`
	// IncludeDirs lists include directories.
	IncludeDirs []string `hcl:"include_dirs,optional"`
	// Toplevel is the module to elaborate.
	Toplevel string `hcl:"toplevel"`
	// Tool selects the simulator; empty means the default.
	Tool string `hcl:"tool,optional"`
	// Parameters holds build-time parameters, raw or already typed.
	Parameters cty.Value `hcl:"parameters,optional"`
	// Plusargs holds runtime plusargs.
	Plusargs cty.Value `hcl:"plusargs,optional"`
	// ToolOptions holds tool-specific options.
	ToolOptions cty.Value `hcl:"tool_options,optional"`
}

// ConfigureOutput reports the prepared work root.
type ConfigureOutput struct {
	WorkRoot   string `cty:"work_root"`
	Tool       string `cty:"tool"`
	Configured bool   `cty:"configured"`
}

// Configure builds the descriptor and configures the backend work root.
func Configure(ctx context.Context, in *task.Input, params *ConfigureParams) *task.Result {
	tool := params.Tool
	if tool == "" {
		tool = backend.DefaultTool
	}
	logger := ctxlog.FromContext(ctx).With("task", ConfigureTaskName, "design", params.Design, "tool", tool)

	b := edam.NewBuilder(params.Design).
		AddFiles(params.Files).
		SetToplevel(params.Toplevel).
		SetFlowOptions(map[string]any{"tool": tool}).
		AddIncludeDirs(params.IncludeDirs)

	addParameters(b, params.Parameters)
	if !params.Plusargs.IsNull() && params.Plusargs.CanIterateElements() {
		b.AddPlusargs(valueMap(params.Plusargs))
	}
	if !params.ToolOptions.IsNull() && params.ToolOptions.CanIterateElements() {
		if opts, ok := edam.ValueToGo(params.ToolOptions).(map[string]any); ok {
			b.SetToolOptions(tool, opts)
		}
	}

	descriptor, err := b.Build()
	if err != nil {
		return task.Fail(fmt.Sprintf("building descriptor: %v", err))
	}

	workRoot := filepath.Join(in.RunDir, "sim_work")
	be, err := backend.New(descriptor, workRoot)
	if err != nil {
		return task.Fail(fmt.Sprintf("creating backend: %v", err))
	}
	if err := be.Configure(ctx); err != nil {
		return task.Fail(fmt.Sprintf("failed to configure %s simulation: %v", tool, err))
	}

	logger.Debug("Simulation configured.", "work_root", workRoot)

	return &task.Result{
		Status:  0,
		Changed: true,
		Output: []any{&ConfigureOutput{
			WorkRoot:   workRoot,
			Tool:       tool,
			Configured: true,
		}},
		Markers: []task.Marker{
			task.Info(fmt.Sprintf("Configured %s simulation for %s", tool, params.Toplevel)),
		},
	}
}

// BuildParams are sim_build's input parameters.
type BuildParams struct {
	// WorkRoot is the directory sim_configure prepared.
	WorkRoot string `hcl:"work_root"`
	// Tool is accepted for interface symmetry; the persisted descriptor's
	// tool selection governs.
	Tool string `hcl:"tool,optional"`
}

// BuildOutput reports the build artifact.
type BuildOutput struct {
	WorkRoot   string `cty:"work_root"`
	BuildOK    bool   `cty:"build_ok"`
	Executable string `cty:"executable"`
}

// Build compiles the configured design.
func Build(ctx context.Context, in *task.Input, params *BuildParams) *task.Result {
	be, err := backend.FromWorkRoot(params.WorkRoot)
	if err != nil {
		return task.Fail(fmt.Sprintf("cannot rebuild descriptor: %v", err))
	}

	if err := be.Build(ctx); err != nil {
		return task.Fail(fmt.Sprintf("build failed: %v", err))
	}

	return &task.Result{
		Status:  0,
		Changed: true,
		Output: []any{&BuildOutput{
			WorkRoot:   params.WorkRoot,
			BuildOK:    true,
			Executable: be.Executable(),
		}},
		Markers: []task.Marker{task.Info("Build completed successfully")},
	}
}

// RunParams are sim_run's input parameters.
type RunParams struct {
	WorkRoot string `hcl:"work_root"`
	Tool     string `hcl:"tool,optional"`
	// Plusargs are additional runtime plusargs, overriding descriptor ones.
	Plusargs cty.Value `hcl:"plusargs,optional"`
}

// RunOutput reports the simulation outcome.
type RunOutput struct {
	WorkRoot string `cty:"work_root"`
	RunOK    bool   `cty:"run_ok"`
	LogFile  string `cty:"log_file"`
}

// Run executes the built simulation model.
func Run(ctx context.Context, in *task.Input, params *RunParams) *task.Result {
	be, err := backend.FromWorkRoot(params.WorkRoot)
	if err != nil {
		return task.Fail(fmt.Sprintf("cannot rebuild descriptor: %v", err))
	}

	var extra map[string]any
	if !params.Plusargs.IsNull() && params.Plusargs.CanIterateElements() {
		extra, _ = edam.ValueToGo(params.Plusargs).(map[string]any)
	}

	if err := be.Run(ctx, extra); err != nil {
		return task.Fail(fmt.Sprintf("simulation failed: %v", err))
	}

	logFile := ""
	if _, err := os.Stat(be.RunLog()); err == nil {
		logFile = be.RunLog()
	} else if logs := be.LogFiles(); len(logs) > 0 {
		logFile = logs[0]
	}

	return &task.Result{
		Status:  0,
		Changed: true,
		Output: []any{&RunOutput{
			WorkRoot: params.WorkRoot,
			RunOK:    true,
			LogFile:  logFile,
		}},
		Markers: []task.Marker{task.Info("Simulation completed successfully")},
	}
}

// addParameters feeds build-time parameters to the builder. A value that is
// itself a record carrying datatype/default/paramtype passes through typed;
// anything else has its datatype inferred.
func addParameters(b *edam.Builder, params cty.Value) {
	if params.IsNull() || !params.CanIterateElements() {
		return
	}

	raw := make(map[string]cty.Value)
	typed := make(map[string]edam.Parameter)

	for it := params.ElementIterator(); it.Next(); {
		k, v := it.Element()
		name := k.AsString()
		if isParameterRecord(v) {
			typed[name] = edam.Parameter{
				Datatype:  v.GetAttr("datatype").AsString(),
				Default:   edam.ValueToGo(v.GetAttr("default")),
				Paramtype: v.GetAttr("paramtype").AsString(),
			}
			continue
		}
		raw[name] = v
	}

	b.AddParameters(raw).AddParameterRecords(typed)
}

// isParameterRecord reports whether v is an already-typed parameter record.
func isParameterRecord(v cty.Value) bool {
	if !v.Type().IsObjectType() {
		return false
	}
	for _, attr := range []string{"datatype", "default", "paramtype"} {
		if !v.Type().HasAttribute(attr) {
			return false
		}
	}
	return true
}

// valueMap splits an object value into its named elements.
func valueMap(v cty.Value) map[string]cty.Value {
	out := make(map[string]cty.Value)
	for it := v.ElementIterator(); it.Next(); {
		k, elem := it.Element()
		out[k.AsString()] = elem
	}
	return out
}

// Module registers the three pipeline tasks.
type Module struct{}

// Register implements task.Module.
func (Module) Register(r *task.Registry) {
	r.Register(ConfigureTaskName, &task.Registered{
		NewParams: func() any { return new(ConfigureParams) },
		Fn:        Configure,
	})
	r.Register(BuildTaskName, &task.Registered{
		NewParams: func() any { return new(BuildParams) },
		Fn:        Build,
	})
	r.Register(RunTaskName, &task.Registered{
		NewParams: func() any { return new(RunParams) },
		Fn:        Run,
	})
}
