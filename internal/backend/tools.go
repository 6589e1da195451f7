package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/edam"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/fsutil"
)

// sourceFiles returns the descriptor's compilable HDL files. Include files
// are reached through include directories, not compiled directly.
func sourceFiles(e *edam.EDAM) []string {
	var out []string
	for _, f := range e.Files {
		if f.IsIncludeFile {
			continue
		}
		switch f.FileType {
		case "verilogSource", "systemVerilogSource":
			out = append(out, f.Name)
		}
	}
	return out
}

// includeDirs returns the union of directories implied by include-file
// entries and explicit include_path attributes, sorted.
func includeDirs(e *edam.EDAM) []string {
	set := make(map[string]struct{})
	for _, f := range e.Files {
		if f.IncludePath != "" {
			set[f.IncludePath] = struct{}{}
		}
		if f.IsIncludeFile {
			set[filepath.Dir(f.Name)] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// param is a named build-time parameter value.
type param struct {
	Name  string
	Value any
}

// vlogparams returns the descriptor's build-time parameters sorted by name.
func vlogparams(e *edam.EDAM) []param {
	var names []string
	for name, p := range e.Parameters {
		if p.Paramtype == edam.ParamTypeVlogparam {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]param, 0, len(names))
	for _, name := range names {
		out = append(out, param{name, e.Parameters[name].Default})
	}
	return out
}

// stringOptions reads a tool's option list, tolerating the []any form a
// reloaded descriptor carries.
func stringOptions(e *edam.EDAM, tool, option string) []string {
	bag, ok := e.ToolOptions[tool]
	if !ok {
		return nil
	}
	switch v := bag[option].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// icarus drives Icarus Verilog: iverilog compiles to <name>.vvp, vvp runs it.
type icarus struct{}

func (icarus) Name() string { return "icarus" }

// Setup writes the command file listing include directories and sources.
func (icarus) Setup(e *edam.EDAM, workRoot string) error {
	var sb strings.Builder
	for _, dir := range includeDirs(e) {
		fmt.Fprintf(&sb, "+incdir+%s\n", dir)
	}
	for _, src := range sourceFiles(e) {
		sb.WriteString(src + "\n")
	}
	path := filepath.Join(workRoot, e.Name+".scr")
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func (icarus) BuildCommand(e *edam.EDAM, workRoot string) (string, []string) {
	args := []string{"-g2012", "-o", e.Name + ".vvp"}
	if e.Toplevel != "" {
		args = append(args, "-s", e.Toplevel)
		for _, p := range vlogparams(e) {
			args = append(args, fmt.Sprintf("-P%s.%s=%s", e.Toplevel, p.Name, vlogValue(p.Value)))
		}
	}
	args = append(args, stringOptions(e, "icarus", "iverilog_options")...)
	args = append(args, "-c", e.Name+".scr")
	return "iverilog", args
}

func (icarus) RunCommand(e *edam.EDAM, workRoot string) (string, []string) {
	return "vvp", []string{e.Name + ".vvp"}
}

func (icarus) Executable(e *edam.EDAM, workRoot string) string {
	return fsutil.FirstExisting("",
		filepath.Join(workRoot, e.Name+".vvp"),
		filepath.Join(workRoot, "simv"))
}

// verilator drives Verilator in binary mode: the model is built into
// obj_dir and executed directly.
type verilator struct{}

func (verilator) Name() string { return "verilator" }

// Setup writes the argument file listing include directories and sources.
func (verilator) Setup(e *edam.EDAM, workRoot string) error {
	var sb strings.Builder
	for _, dir := range includeDirs(e) {
		sb.WriteString("-I" + dir + "\n")
	}
	for _, src := range sourceFiles(e) {
		sb.WriteString(src + "\n")
	}
	path := filepath.Join(workRoot, e.Name+".vc")
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func (verilator) BuildCommand(e *edam.EDAM, workRoot string) (string, []string) {
	args := []string{"--binary", "--Mdir", "obj_dir"}
	if e.Toplevel != "" {
		args = append(args, "--top-module", e.Toplevel)
	}
	for _, p := range vlogparams(e) {
		args = append(args, fmt.Sprintf("-G%s=%s", p.Name, vlogValue(p.Value)))
	}
	args = append(args, stringOptions(e, "verilator", "verilator_options")...)
	args = append(args, "-f", e.Name+".vc")
	return "verilator", args
}

func (v verilator) RunCommand(e *edam.EDAM, workRoot string) (string, []string) {
	if exe := v.Executable(e, workRoot); exe != "" {
		return exe, nil
	}
	return filepath.Join(workRoot, "obj_dir", "V"+e.Toplevel), nil
}

func (verilator) Executable(e *edam.EDAM, workRoot string) string {
	if e.Toplevel != "" {
		named := filepath.Join(workRoot, "obj_dir", "V"+e.Toplevel)
		if _, err := os.Stat(named); err == nil {
			return named
		}
	}
	for _, match := range fsutil.Glob(filepath.Join(workRoot, "obj_dir"), "V*") {
		if info, err := os.Stat(match); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return match
		}
	}
	return ""
}

// vlogValue renders a parameter value for a compiler command line. Strings
// are quoted the way Verilog string parameters expect; booleans become 1/0.
func vlogValue(v any) string {
	switch val := v.(type) {
	case string:
		return `"` + val + `"`
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", val)
	}
}
