// Package edam models the tool-neutral build descriptor handed to the EDA
// backend: design name, file list, parameters, per-tool option bags, and
// flow options. The descriptor is built once per configure step and
// persisted to the work root as <name>.eda.yml for the later stages.
package edam

import "errors"

// ErrMissingName is returned by Builder.Build when no design name was set.
var ErrMissingName = errors.New("edam: design name is required")

// File is one descriptor file entry.
type File struct {
	Name          string `yaml:"name"`
	FileType      string `yaml:"file_type"`
	IsIncludeFile bool   `yaml:"is_include_file,omitempty"`
	IncludePath   string `yaml:"include_path,omitempty"`
	LogicalName   string `yaml:"logical_name,omitempty"`
}

// Parameter describes a build-time parameter or runtime plusarg.
type Parameter struct {
	Datatype  string `yaml:"datatype" cty:"datatype"`
	Default   any    `yaml:"default" cty:"default"`
	Paramtype string `yaml:"paramtype" cty:"paramtype"`
}

// Parameter kinds.
const (
	ParamTypeVlogparam = "vlogparam"
	ParamTypePlusarg   = "plusarg"
)

// ToolOptions is one tool's option bag.
type ToolOptions map[string]any

// EDAM is the complete descriptor. Toplevel is a single module name, never
// a list.
type EDAM struct {
	Name        string                 `yaml:"name"`
	Files       []File                 `yaml:"files"`
	Parameters  map[string]Parameter   `yaml:"parameters"`
	ToolOptions map[string]ToolOptions `yaml:"tool_options"`
	FlowOptions map[string]any         `yaml:"flow_options"`
	Toplevel    string                 `yaml:"toplevel"`
}

// Tool returns the flow-level tool selection, if set.
func (e *EDAM) Tool() string {
	if tool, ok := e.FlowOptions["tool"].(string); ok {
		return tool
	}
	return ""
}
