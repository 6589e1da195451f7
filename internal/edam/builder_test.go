package edam

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/fileset"
)

func TestBuild_BasicStructure(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test_design").Build()
	require.NoError(t, err)

	require.Equal(t, "test_design", e.Name)
	require.Empty(t, e.Files)
	require.Empty(t, e.Parameters)
	require.Empty(t, e.ToolOptions)
	require.Empty(t, e.FlowOptions)
	require.Empty(t, e.Toplevel)
}

func TestBuild_MissingName(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder("").Build()
	require.ErrorIs(t, err, ErrMissingName)
}

func TestAddFiles(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test").AddFiles([]fileset.File{
		{Path: "/path/to/file1.v", Type: "verilog"},
		{Path: "/path/to/file2.sv", Type: "systemverilog"},
		{Path: "/path/to/file3.vhd", Type: "vhdl"},
		{Path: "/path/to/setup.tcl", Type: "tcl"},
		{Path: "/path/to/pins.xdc", Type: "constraint"},
	}).Build()
	require.NoError(t, err)

	require.Len(t, e.Files, 5)
	require.Equal(t, "/path/to/file1.v", e.Files[0].Name)
	require.Equal(t, "verilogSource", e.Files[0].FileType)
	require.Equal(t, "systemVerilogSource", e.Files[1].FileType)
	require.Equal(t, "vhdlSource", e.Files[2].FileType)
	require.Equal(t, "tclSource", e.Files[3].FileType)
	require.Equal(t, "user", e.Files[4].FileType, "generic constraints fall back to user")
}

func TestAddFiles_Attributes(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test").AddFiles([]fileset.File{
		{Path: "/path/to/inc.vh", Type: "verilog", IsInclude: true, IncludePath: "/path/to"},
		{Path: "/path/to/pkg.vhd", Type: "vhdl", Library: "work"},
	}).Build()
	require.NoError(t, err)

	require.True(t, e.Files[0].IsIncludeFile)
	require.Equal(t, "/path/to", e.Files[0].IncludePath)
	require.Equal(t, "work", e.Files[1].LogicalName)
}

func TestSetToplevel(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test").SetToplevel("my_top").Build()
	require.NoError(t, err)
	require.Equal(t, "my_top", e.Toplevel)

	// A list of names keeps only the first.
	e, err = NewBuilder("test2").SetToplevel("top1", "top2").Build()
	require.NoError(t, err)
	require.Equal(t, "top1", e.Toplevel)

	e, err = NewBuilder("test3").SetToplevel().Build()
	require.NoError(t, err)
	require.Empty(t, e.Toplevel)
}

func TestAddParameters(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test").AddParameters(map[string]cty.Value{
		"WIDTH":  cty.NumberIntVal(8),
		"ENABLE": cty.True,
		"NAME":   cty.StringVal("test"),
		"GAIN":   cty.NumberFloatVal(1.5),
	}).Build()
	require.NoError(t, err)

	require.Equal(t, "int", e.Parameters["WIDTH"].Datatype)
	require.Equal(t, int64(8), e.Parameters["WIDTH"].Default)
	require.Equal(t, ParamTypeVlogparam, e.Parameters["WIDTH"].Paramtype)

	require.Equal(t, "bool", e.Parameters["ENABLE"].Datatype)
	require.Equal(t, "str", e.Parameters["NAME"].Datatype)
	require.Equal(t, "real", e.Parameters["GAIN"].Datatype)
	require.Equal(t, 1.5, e.Parameters["GAIN"].Default)
}

func TestAddParameterRecords(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test").AddParameterRecords(map[string]Parameter{
		"MODE": {Datatype: "str", Default: "fast", Paramtype: ParamTypeVlogparam},
	}).Build()
	require.NoError(t, err)
	require.Equal(t, "fast", e.Parameters["MODE"].Default)
}

func TestAddPlusargs(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test").AddPlusargs(map[string]cty.Value{
		"seed":    cty.NumberIntVal(42),
		"verbose": cty.True,
	}).Build()
	require.NoError(t, err)

	require.Equal(t, ParamTypePlusarg, e.Parameters["seed"].Paramtype)
	require.Equal(t, int64(42), e.Parameters["seed"].Default)
	require.Equal(t, ParamTypePlusarg, e.Parameters["verbose"].Paramtype)
}

func TestSetToolOptions(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test").
		SetToolOptions("icarus", map[string]any{"iverilog_options": []string{"-g2012", "-Wall"}}).
		SetToolOptions("icarus", map[string]any{"timescale": "1ns/1ps"}).
		Build()
	require.NoError(t, err)

	require.Equal(t, []string{"-g2012", "-Wall"}, e.ToolOptions["icarus"]["iverilog_options"])
	require.Equal(t, "1ns/1ps", e.ToolOptions["icarus"]["timescale"])
}

func TestSetFlowOptions(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test").SetFlowOptions(map[string]any{
		"tool":   "verilator",
		"target": "sim",
	}).Build()
	require.NoError(t, err)

	require.Equal(t, "verilator", e.FlowOptions["tool"])
	require.Equal(t, "verilator", e.Tool())
	require.Equal(t, "sim", e.FlowOptions["target"])
}

func TestAddIncludeDirs(t *testing.T) {
	t.Parallel()

	e, err := NewBuilder("test").
		AddIncludeDirs([]string{"/path/to/inc1", "/path/to/inc2"}).
		Build()
	require.NoError(t, err)

	icarus := e.ToolOptions["icarus"]["iverilog_options"].([]string)
	require.Equal(t, []string{"-I", "/path/to/inc1", "-I", "/path/to/inc2"}, icarus)

	verilator := e.ToolOptions["verilator"]["verilator_options"].([]string)
	require.Equal(t, []string{"-I/path/to/inc1", "-I/path/to/inc2"}, verilator)
}

func TestBuilder_Chaining(t *testing.T) {
	t.Parallel()

	build := func(b *Builder) *EDAM {
		e, err := b.Build()
		require.NoError(t, err)
		return e
	}

	// Chained calls touching disjoint fields compose in any order.
	a := build(NewBuilder("test").
		AddFiles([]fileset.File{{Path: "test.v", Type: "verilog"}}).
		SetToplevel("top").
		AddParameters(map[string]cty.Value{"WIDTH": cty.NumberIntVal(8)}).
		SetFlowOptions(map[string]any{"tool": "icarus"}))

	b := build(NewBuilder("test").
		SetFlowOptions(map[string]any{"tool": "icarus"}).
		AddParameters(map[string]cty.Value{"WIDTH": cty.NumberIntVal(8)}).
		SetToplevel("top").
		AddFiles([]fileset.File{{Path: "test.v", Type: "verilog"}}))

	require.Equal(t, a, b)
	require.Equal(t, "test", a.Name)
	require.Len(t, a.Files, 1)
	require.Equal(t, "top", a.Toplevel)
	require.Contains(t, a.Parameters, "WIDTH")
	require.Equal(t, "icarus", a.FlowOptions["tool"])
}

func TestInferDatatype(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		val  cty.Value
		want string
	}{
		{"bool", cty.False, "bool"},
		{"int", cty.NumberIntVal(3), "int"},
		{"real", cty.NumberFloatVal(3.25), "real"},
		{"string", cty.StringVal("x"), "str"},
		{"null", cty.NullVal(cty.String), "str"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, InferDatatype(tc.val))
		})
	}
}
