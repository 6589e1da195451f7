// Package corefile parses core description files: YAML documents that
// declare a core's identity, filesets, targets, and parameters. Only the
// subset of the format that the resolution tasks consume is modeled here;
// unknown keys are ignored.
package corefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FormatTag is the mandatory first line of a core description file.
const FormatTag = "CAPI=2:"

// File is one entry of a fileset's files list. In YAML it is either a bare
// path string or a single-key mapping from the path to an attribute block.
type File struct {
	Name          string
	FileType      string
	IsIncludeFile bool
	IncludePath   string
	LogicalName   string
	CopyTo        string
	Tags          []string
}

// fileAttrs is the attribute block of the mapping form.
type fileAttrs struct {
	FileType      string   `yaml:"file_type"`
	IsIncludeFile bool     `yaml:"is_include_file"`
	IncludePath   string   `yaml:"include_path"`
	LogicalName   string   `yaml:"logical_name"`
	CopyTo        string   `yaml:"copyto"`
	Tags          []string `yaml:"tags"`
}

// UnmarshalYAML accepts both entry forms.
func (f *File) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&f.Name)

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("file entry must map exactly one path to its attributes (line %d)", node.Line)
		}
		if err := node.Content[0].Decode(&f.Name); err != nil {
			return err
		}
		var attrs fileAttrs
		if err := node.Content[1].Decode(&attrs); err != nil {
			return err
		}
		f.FileType = attrs.FileType
		f.IsIncludeFile = attrs.IsIncludeFile
		f.IncludePath = attrs.IncludePath
		f.LogicalName = attrs.LogicalName
		f.CopyTo = attrs.CopyTo
		f.Tags = attrs.Tags
		return nil

	default:
		return fmt.Errorf("file entry must be a string or a mapping (line %d)", node.Line)
	}
}

// StringList accepts either a single YAML scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements the scalar-or-sequence form.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var one string
		if err := node.Decode(&one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return err
	}
	*s = StringList(many)
	return nil
}

// Fileset is a named group of files sharing a default file type.
type Fileset struct {
	Files    []File   `yaml:"files"`
	FileType string   `yaml:"file_type"`
	Depend   []string `yaml:"depend"`
}

// Target selects filesets and a toplevel for one use of the core.
type Target struct {
	Filesets   []string   `yaml:"filesets"`
	Toplevel   StringList `yaml:"toplevel"`
	Parameters []string   `yaml:"parameters"`
}

// Parameter declares a build-time parameter or runtime plusarg.
type Parameter struct {
	Datatype    string `yaml:"datatype"`
	Default     any    `yaml:"default"`
	Paramtype   string `yaml:"paramtype"`
	Description string `yaml:"description"`
}

// Core is the parsed description plus the filesystem roots derived from the
// description file's location. FilesRoot differs from CoreRoot only when
// the core's files were fetched somewhere other than beside the
// description; local cores share one root.
type Core struct {
	Name       string               `yaml:"name"`
	Filesets   map[string]Fileset   `yaml:"filesets"`
	Targets    map[string]Target    `yaml:"targets"`
	Parameters map[string]Parameter `yaml:"parameters"`

	CoreRoot  string `yaml:"-"`
	FilesRoot string `yaml:"-"`
}

// Parse reads and decodes a core description file.
func Parse(path string) (*Core, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading core file: %w", err)
	}

	if !strings.HasPrefix(strings.TrimLeft(string(data), "\uFEFF"), FormatTag) {
		return nil, fmt.Errorf("%s: missing %q header", path, FormatTag)
	}

	var core Core
	if err := yaml.Unmarshal(data, &core); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if core.Name == "" {
		return nil, fmt.Errorf("%s: core has no name", path)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	core.CoreRoot = root
	core.FilesRoot = root

	return &core, nil
}

// Target returns the named target, falling back to "default" when name is
// empty. The bool reports whether a target was found.
func (c *Core) Target(name string) (Target, bool) {
	if name == "" {
		name = "default"
	}
	t, ok := c.Targets[name]
	return t, ok
}
