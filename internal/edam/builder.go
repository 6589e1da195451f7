package edam

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/fileset"
)

// fileTypeMap maps neutral file-type tags back to the descriptor's external
// tags. Generic constraints have no tool-neutral external tag, so they fall
// back to "user" like everything unrecognized.
var fileTypeMap = map[string]string{
	"verilog":       "verilogSource",
	"systemverilog": "systemVerilogSource",
	"vhdl":          "vhdlSource",
	"vhdl-2008":     "vhdlSource-2008",
	"tcl":           "tclSource",
	"xdc":           "xdc",
	"sdc":           "SDC",
	"ucf":           "UCF",
	"constraint":    "user",
	"user":          "user",
}

func mapNeutralType(tag string) string {
	if mapped, ok := fileTypeMap[tag]; ok {
		return mapped
	}
	return "user"
}

// Builder accumulates descriptor content through chained calls.
type Builder struct {
	edam EDAM
}

// NewBuilder starts a descriptor for the named design.
func NewBuilder(name string) *Builder {
	return &Builder{
		edam: EDAM{
			Name:        name,
			Files:       []File{},
			Parameters:  map[string]Parameter{},
			ToolOptions: map[string]ToolOptions{},
			FlowOptions: map[string]any{},
		},
	}
}

// AddFiles appends converted file records to the descriptor.
func (b *Builder) AddFiles(files []fileset.File) *Builder {
	for _, f := range files {
		path := f.Path
		if path == "" {
			path = f.Name
		}
		entry := File{
			Name:     path,
			FileType: mapNeutralType(f.Type),
		}
		if f.IsInclude {
			entry.IsIncludeFile = true
		}
		if f.IncludePath != "" {
			entry.IncludePath = f.IncludePath
		}
		if f.Library != "" {
			entry.LogicalName = f.Library
		}
		b.edam.Files = append(b.edam.Files, entry)
	}
	return b
}

// SetToplevel sets the toplevel module. The descriptor holds a single
// string; when several names are supplied only the first is kept.
func (b *Builder) SetToplevel(toplevel ...string) *Builder {
	if len(toplevel) > 0 {
		b.edam.Toplevel = toplevel[0]
	} else {
		b.edam.Toplevel = ""
	}
	return b
}

// AddParameters adds build-time parameters from raw values, inferring each
// datatype.
func (b *Builder) AddParameters(params map[string]cty.Value) *Builder {
	for name, val := range params {
		b.edam.Parameters[name] = Parameter{
			Datatype:  InferDatatype(val),
			Default:   ValueToGo(val),
			Paramtype: ParamTypeVlogparam,
		}
	}
	return b
}

// AddParameterRecords adds parameters that already carry their datatype and
// kind, for example declarations taken from a resolved core.
func (b *Builder) AddParameterRecords(params map[string]Parameter) *Builder {
	for name, p := range params {
		b.edam.Parameters[name] = p
	}
	return b
}

// AddPlusargs adds runtime plusargs, inferring each datatype.
func (b *Builder) AddPlusargs(args map[string]cty.Value) *Builder {
	for name, val := range args {
		b.edam.Parameters[name] = Parameter{
			Datatype:  InferDatatype(val),
			Default:   ValueToGo(val),
			Paramtype: ParamTypePlusarg,
		}
	}
	return b
}

// SetToolOptions merges options into one tool's bag.
func (b *Builder) SetToolOptions(tool string, options map[string]any) *Builder {
	bag, ok := b.edam.ToolOptions[tool]
	if !ok {
		bag = ToolOptions{}
		b.edam.ToolOptions[tool] = bag
	}
	for k, v := range options {
		bag[k] = v
	}
	return b
}

// SetFlowOptions merges flow-level options.
func (b *Builder) SetFlowOptions(options map[string]any) *Builder {
	for k, v := range options {
		b.edam.FlowOptions[k] = v
	}
	return b
}

// AddIncludeDirs records include directories in each supported tool's own
// flag syntax. Tools outside this set handle includes through their
// explicit tool options instead.
func (b *Builder) AddIncludeDirs(dirs []string) *Builder {
	if len(dirs) == 0 {
		return b
	}

	icarus := b.stringListOption("icarus", "iverilog_options")
	verilator := b.stringListOption("verilator", "verilator_options")
	for _, dir := range dirs {
		icarus = append(icarus, "-I", dir)
		verilator = append(verilator, "-I"+dir)
	}
	b.edam.ToolOptions["icarus"]["iverilog_options"] = icarus
	b.edam.ToolOptions["verilator"]["verilator_options"] = verilator
	return b
}

// stringListOption fetches a tool option as a string slice, creating the
// bag and coercing a reloaded []any form as needed.
func (b *Builder) stringListOption(tool, option string) []string {
	bag, ok := b.edam.ToolOptions[tool]
	if !ok {
		bag = ToolOptions{}
		b.edam.ToolOptions[tool] = bag
	}
	switch v := bag[option].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Build validates and returns the descriptor.
func (b *Builder) Build() (*EDAM, error) {
	if b.edam.Name == "" {
		return nil, ErrMissingName
	}
	e := b.edam
	return &e, nil
}
