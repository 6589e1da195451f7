package coremgr

import (
	"fmt"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/corefile"
)

// FileRecord is a file as the core declares it, before conversion to the
// neutral format. FileType falls back to the owning fileset's default.
type FileRecord struct {
	Name          string
	FileType      string
	IsIncludeFile bool
	IncludePath   string
	LogicalName   string
	CopyTo        string
	Tags          []string
}

// Files returns the file records the selected target contributes, fileset
// by fileset in the target's declaration order.
func (m *Manager) Files(core *corefile.Core, flags Flags) ([]FileRecord, error) {
	target, ok := core.Target(flags.Target)
	if !ok {
		return nil, fmt.Errorf("core %q has no target %q", core.Name, targetName(flags))
	}

	var records []FileRecord
	for _, fsName := range target.Filesets {
		fs, ok := core.Filesets[fsName]
		if !ok {
			return nil, fmt.Errorf("core %q target %q references unknown fileset %q",
				core.Name, targetName(flags), fsName)
		}
		for _, f := range fs.Files {
			rec := FileRecord{
				Name:          f.Name,
				FileType:      f.FileType,
				IsIncludeFile: f.IsIncludeFile,
				IncludePath:   f.IncludePath,
				LogicalName:   f.LogicalName,
				CopyTo:        f.CopyTo,
				Tags:          f.Tags,
			}
			if rec.FileType == "" {
				rec.FileType = fs.FileType
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// Toplevel returns the selected target's toplevel entries.
func (m *Manager) Toplevel(core *corefile.Core, flags Flags) []string {
	target, ok := core.Target(flags.Target)
	if !ok {
		return nil
	}
	return []string(target.Toplevel)
}

// Dependencies returns the dependency names the selected target's filesets
// declare, in declaration order and de-duplicated.
func (m *Manager) Dependencies(core *corefile.Core, flags Flags) ([]string, error) {
	target, ok := core.Target(flags.Target)
	if !ok {
		return nil, fmt.Errorf("core %q has no target %q", core.Name, targetName(flags))
	}

	seen := make(map[string]struct{})
	var deps []string
	for _, fsName := range target.Filesets {
		fs, ok := core.Filesets[fsName]
		if !ok {
			continue
		}
		for _, dep := range fs.Depend {
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			deps = append(deps, dep)
		}
	}
	return deps, nil
}

// ResolveDependencies resolves the full dependency closure of query,
// returning the cores in discovery order (the queried core first). Cycles
// are tolerated via the visited set; a dependency that is not registered is
// an error.
func (m *Manager) ResolveDependencies(query string, flags Flags) ([]*corefile.Core, error) {
	visited := make(map[string]struct{})
	var out []*corefile.Core

	var walk func(q string) error
	walk = func(q string) error {
		core, err := m.Resolve(q)
		if err != nil {
			return err
		}
		if _, done := visited[core.Name]; done {
			return nil
		}
		visited[core.Name] = struct{}{}
		out = append(out, core)

		deps, err := m.Dependencies(core, flags)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if err := walk(dep); err != nil {
				return fmt.Errorf("dependency of %q: %w", core.Name, err)
			}
		}
		return nil
	}

	if err := walk(query); err != nil {
		return nil, err
	}
	return out, nil
}

// Parameters returns the core's parameter declarations. A target may narrow
// the set by listing parameter names; an empty list keeps them all.
func (m *Manager) Parameters(core *corefile.Core, flags Flags) map[string]corefile.Parameter {
	params := make(map[string]corefile.Parameter, len(core.Parameters))

	target, ok := core.Target(flags.Target)
	if ok && len(target.Parameters) > 0 {
		for _, name := range target.Parameters {
			if p, declared := core.Parameters[name]; declared {
				params[name] = p
			}
		}
		return params
	}

	for name, p := range core.Parameters {
		params[name] = p
	}
	return params
}

func targetName(flags Flags) string {
	if flags.Target == "" {
		return "default"
	}
	return flags.Target
}
