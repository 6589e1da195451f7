// Package core_resolve implements the task that resolves a core identifier
// to its file lists, dependencies, and parameters.
package core_resolve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/coremgr"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/ctxlog"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/edam"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/fileset"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/task"
)

// Params are the task's input parameters.
type Params struct {
	// Core is the VLNV of the core to resolve.
	Core string `hcl:"core"`
	// Target selects a target configuration, e.g. "sim".
	Target string `hcl:"target,optional"`
	// Tool names the tool for tool-specific filesets.
	Tool string `hcl:"tool,optional"`
	// Libraries maps library names to local paths to register.
	Libraries map[string]string `hcl:"libraries,optional"`
	// Workspace overrides the default workspace directory under the run dir.
	Workspace string `hcl:"workspace,optional"`
}

// Output carries the resolved core information.
type Output struct {
	CoreName     string                    `cty:"core_name"`
	CoreRoot     string                    `cty:"core_root"`
	FilesRoot    string                    `cty:"files_root"`
	Files        []fileset.File            `cty:"files"`
	Dependencies []string                  `cty:"dependencies"`
	Parameters   map[string]edam.Parameter `cty:"parameters"`
	IncludeDirs  []string                  `cty:"include_dirs"`
}

// Memento caches what was resolved and when.
type Memento struct {
	Core       string
	Target     string
	Tool       string
	CoreName   string
	ResolvedAt time.Time
}

// Run resolves the core named in params. Every delegate failure is caught
// here and reported as a status-1 result; nothing propagates to the host.
func Run(ctx context.Context, in *task.Input, params *Params) *task.Result {
	logger := ctxlog.FromContext(ctx).With("task", "core_resolve", "core", params.Core)
	var markers []task.Marker

	workspace := params.Workspace
	if workspace == "" {
		workspace = filepath.Join(in.RunDir, "fusesoc_workspace")
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return task.Fail(fmt.Sprintf("creating workspace: %v", err))
	}

	manager := coremgr.New()
	for name, path := range params.Libraries {
		if _, err := manager.AddLibrary(ctx, name, path); err != nil {
			return task.Fail(fmt.Sprintf("adding library %q: %v", name, err))
		}
	}

	flags := coremgr.Flags{Target: params.Target, Tool: params.Tool}

	core, err := manager.Resolve(params.Core)
	if err != nil {
		return task.Fail(fmt.Sprintf("core resolution failed: %v", err))
	}
	markers = append(markers, task.Info(fmt.Sprintf("Resolved core: %s", core.Name)))

	records, err := manager.Files(core, flags)
	if err != nil {
		return task.Fail(fmt.Sprintf("extracting files: %v", err))
	}

	converter := fileset.NewConverter(core.CoreRoot, core.FilesRoot)
	files := converter.Convert(records)
	includeDirs := converter.IncludeDirs(records)
	markers = append(markers, task.Info(fmt.Sprintf("Extracted %d files from core", len(files))))

	deps, err := manager.Dependencies(core, flags)
	if err != nil {
		return task.Fail(fmt.Sprintf("extracting dependencies: %v", err))
	}

	parameters := make(map[string]edam.Parameter)
	for name, p := range manager.Parameters(core, flags) {
		parameters[name] = edam.Parameter{
			Datatype:  p.Datatype,
			Default:   p.Default,
			Paramtype: p.Paramtype,
		}
	}

	logger.Debug("Core resolution complete.", "files", len(files), "deps", len(deps))

	return &task.Result{
		Status:  0,
		Changed: true,
		Output: []any{&Output{
			CoreName:     core.Name,
			CoreRoot:     core.CoreRoot,
			FilesRoot:    core.FilesRoot,
			Files:        files,
			Dependencies: deps,
			Parameters:   parameters,
			IncludeDirs:  includeDirs,
		}},
		Markers: markers,
		Memento: &Memento{
			Core:       params.Core,
			Target:     params.Target,
			Tool:       params.Tool,
			CoreName:   core.Name,
			ResolvedAt: time.Now(),
		},
	}
}

// Module registers the task.
type Module struct{}

// TaskName is the name the task registers under.
const TaskName = "core_resolve"

// Register implements task.Module.
func (Module) Register(r *task.Registry) {
	r.Register(TaskName, &task.Registered{
		NewParams: func() any { return new(Params) },
		Fn:        Run,
	})
}
