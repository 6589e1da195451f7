// Package fileset converts core file records into the neutral file
// collection format the descriptor builder consumes, resolving each path
// against the core root and, when distinct, the fetched-files root.
package fileset

import (
	"path/filepath"
	"sort"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/coremgr"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/fsutil"
)

// File is a converted record in the neutral format. The cty tags expose it
// to flow expressions; the yaml tags match the descriptor file layout.
type File struct {
	Path        string   `cty:"path" yaml:"path"`
	Type        string   `cty:"type" yaml:"type"`
	Name        string   `cty:"name" yaml:"name"`
	IsInclude   bool     `cty:"is_include" yaml:"is_include,omitempty"`
	IncludePath string   `cty:"include_path" yaml:"include_path,omitempty"`
	Library     string   `cty:"library" yaml:"library,omitempty"`
	CopyTo      string   `cty:"copyto" yaml:"copyto,omitempty"`
	Tags        []string `cty:"tags" yaml:"tags,omitempty"`
}

// typeMap maps external file-type tags to neutral category tags. Tags
// outside the table pass through unchanged.
var typeMap = map[string]string{
	"verilogSource":       "verilog",
	"systemVerilogSource": "systemverilog",
	"vhdlSource":          "vhdl",
	"vhdlSource-2008":     "vhdl",
	"tclSource":           "tcl",
	"user":                "user",
	"xdc":                 "constraint",
	"SDC":                 "constraint",
	"UCF":                 "constraint",
	"PCF":                 "constraint",
	"LPF":                 "constraint",
}

// MapFileType maps an external file-type tag to its neutral tag. An empty
// tag becomes "user"; unmapped tags pass through.
func MapFileType(tag string) string {
	if tag == "" {
		return "user"
	}
	if mapped, ok := typeMap[tag]; ok {
		return mapped
	}
	return tag
}

// Converter resolves and converts records relative to two candidate roots.
type Converter struct {
	CoreRoot  string
	FilesRoot string
}

// NewConverter builds a Converter. An empty filesRoot means fetched files
// live beside the core description.
func NewConverter(coreRoot, filesRoot string) *Converter {
	if filesRoot == "" {
		filesRoot = coreRoot
	}
	return &Converter{CoreRoot: coreRoot, FilesRoot: filesRoot}
}

// Convert translates core file records to the neutral format. Records
// without a name are dropped. Missing files are not an error: generated
// files may not exist at conversion time, so the unresolved core-root path
// is emitted as-is.
func (c *Converter) Convert(records []coremgr.FileRecord) []File {
	var out []File
	for _, rec := range records {
		if rec.Name == "" {
			continue
		}
		f := File{
			Path:      c.ResolvePath(rec.Name),
			Type:      MapFileType(rec.FileType),
			Name:      rec.Name,
			IsInclude: rec.IsIncludeFile,
			Library:   rec.LogicalName,
			CopyTo:    rec.CopyTo,
			Tags:      rec.Tags,
		}
		if rec.IncludePath != "" {
			f.IncludePath = c.ResolvePath(rec.IncludePath)
		}
		out = append(out, f)
	}
	return out
}

// ResolvePath resolves name against the core root first, then the files
// root when it differs, preferring the first under which the file exists.
// If neither exists the core-root path is returned anyway.
func (c *Converter) ResolvePath(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}

	corePath := filepath.Join(c.CoreRoot, name)
	if c.FilesRoot == c.CoreRoot {
		return fsutil.FirstExisting(corePath, corePath)
	}
	return fsutil.FirstExisting(corePath, corePath, filepath.Join(c.FilesRoot, name))
}

// IncludeDirs collects the include directories a record set implies: every
// explicit include_path attribute, plus the parent directory of every file
// marked as an include file. The result is sorted and de-duplicated.
func (c *Converter) IncludeDirs(records []coremgr.FileRecord) []string {
	dirs := make(map[string]struct{})

	for _, rec := range records {
		if rec.IncludePath != "" {
			dirs[c.ResolvePath(rec.IncludePath)] = struct{}{}
		}
		if rec.IsIncludeFile && rec.Name != "" {
			dirs[filepath.Dir(c.ResolvePath(rec.Name))] = struct{}{}
		}
	}

	out := make([]string, 0, len(dirs))
	for d := range dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// FilterByType keeps only files whose neutral type is in types.
func FilterByType(files []File, types ...string) []File {
	want := make(map[string]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}
	var out []File
	for _, f := range files {
		if _, ok := want[f.Type]; ok {
			out = append(out, f)
		}
	}
	return out
}

// SourceFiles keeps only HDL source files, excluding constraints, scripts
// and other auxiliary inputs.
func SourceFiles(files []File) []File {
	return FilterByType(files, "verilog", "systemverilog", "vhdl")
}
