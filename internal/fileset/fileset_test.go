package fileset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/coremgr"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("module m; endmodule\n"), 0o644))
}

func TestMapFileType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"verilogSource", "verilog"},
		{"systemVerilogSource", "systemverilog"},
		{"vhdlSource", "vhdl"},
		{"vhdlSource-2008", "vhdl"},
		{"tclSource", "tcl"},
		{"xdc", "constraint"},
		{"SDC", "constraint"},
		{"UCF", "constraint"},
		{"PCF", "constraint"},
		{"LPF", "constraint"},
		{"user", "user"},
		{"", "user"},
		{"somethingElse", "somethingElse"}, // unmapped tags pass through
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, MapFileType(tc.in), "tag %q", tc.in)
	}
}

func TestConvert_TypeAndName(t *testing.T) {
	t.Parallel()

	coreRoot := t.TempDir()
	writeFile(t, filepath.Join(coreRoot, "test.v"))
	writeFile(t, filepath.Join(coreRoot, "test.sv"))

	c := NewConverter(coreRoot, "")
	converted := c.Convert([]coremgr.FileRecord{
		{Name: "test.v", FileType: "verilogSource"},
		{Name: "test.sv", FileType: "systemVerilogSource"},
		{FileType: "verilogSource"}, // nameless: dropped silently
	})

	require.Len(t, converted, 2)
	require.Equal(t, "verilog", converted[0].Type)
	require.Equal(t, "systemverilog", converted[1].Type)
	require.Equal(t, "test.v", converted[0].Name)
	require.Equal(t, filepath.Join(coreRoot, "test.v"), converted[0].Path)
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	coreRoot := t.TempDir()
	filesRoot := t.TempDir()
	writeFile(t, filepath.Join(coreRoot, "in_core.v"))
	writeFile(t, filepath.Join(filesRoot, "fetched.v"))

	c := NewConverter(coreRoot, filesRoot)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"exists under primary root", "in_core.v", filepath.Join(coreRoot, "in_core.v")},
		{"exists under secondary root", "fetched.v", filepath.Join(filesRoot, "fetched.v")},
		{"exists nowhere: primary path returned", "generated.v", filepath.Join(coreRoot, "generated.v")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, c.ResolvePath(tc.in))
		})
	}

	abs := filepath.Join(coreRoot, "in_core.v")
	require.Equal(t, abs, c.ResolvePath(abs), "absolute paths pass through")
}

func TestIncludeDirs(t *testing.T) {
	t.Parallel()

	coreRoot := t.TempDir()
	writeFile(t, filepath.Join(coreRoot, "include", "defines.vh"))

	c := NewConverter(coreRoot, "")
	records := []coremgr.FileRecord{
		{Name: "include/defines.vh", FileType: "verilogSource", IsIncludeFile: true},
		{Name: "rtl/top.v", FileType: "verilogSource", IncludePath: "include"},
	}

	converted := c.Convert(records)
	require.Len(t, converted, 2)
	require.True(t, converted[0].IsInclude)
	require.Equal(t, filepath.Join(coreRoot, "include"), converted[1].IncludePath)

	dirs := c.IncludeDirs(records)
	require.Len(t, dirs, 1)
	require.True(t, strings.HasSuffix(dirs[0], "include"))
}

func TestConvert_LibraryAttribute(t *testing.T) {
	t.Parallel()

	coreRoot := t.TempDir()
	writeFile(t, filepath.Join(coreRoot, "pkg.vhd"))

	c := NewConverter(coreRoot, "")
	converted := c.Convert([]coremgr.FileRecord{
		{Name: "pkg.vhd", FileType: "vhdlSource", LogicalName: "work"},
	})

	require.Len(t, converted, 1)
	require.Equal(t, "work", converted[0].Library)
}

func TestFilters(t *testing.T) {
	t.Parallel()

	files := []File{
		{Path: "test.v", Type: "verilog", Name: "test.v"},
		{Path: "test.sv", Type: "systemverilog", Name: "test.sv"},
		{Path: "test.xdc", Type: "constraint", Name: "test.xdc"},
	}

	verilog := FilterByType(files, "verilog")
	require.Len(t, verilog, 1)
	require.Equal(t, "verilog", verilog[0].Type)

	sources := SourceFiles(files)
	require.Len(t, sources, 2)
	for _, f := range sources {
		require.Contains(t, []string{"verilog", "systemverilog", "vhdl"}, f.Type)
	}
}
