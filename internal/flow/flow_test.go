package flow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/task"
)

const sampleFlow = `
flow "smoke" {
  step "core_resolve" "rtl" {
    arguments {
      core = "::simple"
    }
  }

  step "sim_configure" "cfg" {
    arguments {
      design   = step.rtl.core_name
      toplevel = "simple_tb"
    }
  }
}
`

func writeFlow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smoke.flow.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	file, err := Load(context.Background(), writeFlow(t, sampleFlow))
	require.NoError(t, err)
	require.Len(t, file.Flows, 1)

	fl, err := file.Flow("smoke")
	require.NoError(t, err)
	require.Len(t, fl.Steps, 2)
	require.Equal(t, "core_resolve", fl.Steps[0].TaskType)
	require.Equal(t, "rtl", fl.Steps[0].Name)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
	}{
		{"no flows", `# empty file`},
		{"duplicate step name", `
flow "dup" {
  step "core_resolve" "a" {}
  step "core_resolve" "a" {}
}
`},
		{"syntax error", `flow "broken" {`},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(context.Background(), writeFlow(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestFile_Flow(t *testing.T) {
	t.Parallel()

	file := &File{Flows: []*Flow{{Name: "first"}, {Name: "second"}}}

	fl, err := file.Flow("")
	require.NoError(t, err)
	require.Equal(t, "first", fl.Name, "empty name selects the first flow")

	fl, err = file.Flow("second")
	require.NoError(t, err)
	require.Equal(t, "second", fl.Name)

	_, err = file.Flow("missing")
	require.Error(t, err)
}

func TestStep_Decode_CrossReference(t *testing.T) {
	t.Parallel()

	file, err := Load(context.Background(), writeFlow(t, sampleFlow))
	require.NoError(t, err)
	fl, err := file.Flow("smoke")
	require.NoError(t, err)

	type resolveOut struct {
		CoreName string `cty:"core_name"`
	}
	scope := NewScope()
	require.NoError(t, scope.AddStep("rtl", &task.Result{
		Output: []any{&resolveOut{CoreName: "vendor:lib:simple:1.0"}},
	}))

	var params struct {
		Design   string `hcl:"design"`
		Toplevel string `hcl:"toplevel"`
	}
	require.NoError(t, fl.Steps[1].Decode(&params, scope.EvalContext()))
	require.Equal(t, "vendor:lib:simple:1.0", params.Design)
	require.Equal(t, "simple_tb", params.Toplevel)
}

func TestStep_Decode_NoArguments(t *testing.T) {
	t.Parallel()

	step := &Step{TaskType: "sim_build", Name: "bld"}
	var params struct {
		WorkRoot string `hcl:"work_root,optional"`
	}
	require.NoError(t, step.Decode(&params, NewScope().EvalContext()))
	require.Empty(t, params.WorkRoot)
}

func TestToCtyValue(t *testing.T) {
	t.Parallel()

	type record struct {
		Path    string   `cty:"path"`
		IsInc   bool     `cty:"is_include"`
		Tags    []string `cty:"tags"`
		Default any      `cty:"default"`
	}

	val, err := ToCtyValue(&record{
		Path:    "rtl/simple.v",
		IsInc:   true,
		Tags:    []string{"rtl"},
		Default: int64(8),
	})
	require.NoError(t, err)
	require.True(t, val.Type().IsObjectType())

	attrs := val.AsValueMap()
	require.Equal(t, cty.StringVal("rtl/simple.v"), attrs["path"])
	require.Equal(t, cty.True, attrs["is_include"])
	require.Equal(t, cty.TupleVal([]cty.Value{cty.StringVal("rtl")}), attrs["tags"])
	require.Equal(t, cty.NumberIntVal(8), attrs["default"])
}

func TestToCtyValue_NilAndMaps(t *testing.T) {
	t.Parallel()

	val, err := ToCtyValue(nil)
	require.NoError(t, err)
	require.True(t, val.IsNull())

	val, err = ToCtyValue(map[string]any{"seed": 7, "trace": true})
	require.NoError(t, err)
	require.Equal(t, cty.NumberIntVal(7), val.GetAttr("seed"))
	require.Equal(t, cty.True, val.GetAttr("trace"))

	_, err = ToCtyValue(map[int]string{1: "x"})
	require.Error(t, err)
}

func TestScope_AddStep_RejectsNonStructOutput(t *testing.T) {
	t.Parallel()

	scope := NewScope()
	err := scope.AddStep("bad", &task.Result{Output: []any{"just a string"}})
	require.Error(t, err)
}
