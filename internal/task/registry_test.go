package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type echoParams struct {
	Msg string
}

func echoTask(ctx context.Context, in *Input, params *echoParams) *Result {
	return &Result{
		Status:  0,
		Changed: true,
		Output:  []any{params.Msg},
		Markers: []Marker{Info("echoed " + params.Msg)},
	}
}

func panicTask(ctx context.Context, in *Input, params *echoParams) *Result {
	panic("boom: " + params.Msg)
}

func TestRegistry_RunTask(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("echo", &Registered{
		NewParams: func() any { return new(echoParams) },
		Fn:        echoTask,
	})

	res := r.Run(context.Background(), "echo", &Input{RunDir: t.TempDir()}, &echoParams{Msg: "hi"})
	require.Equal(t, 0, res.Status)
	require.True(t, res.Changed)
	require.Equal(t, []any{"hi"}, res.Output)
	require.Empty(t, res.ErrorMarkers())
}

func TestRegistry_UnknownTask(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	res := r.Run(context.Background(), "nope", &Input{}, nil)
	require.Equal(t, 1, res.Status)
	require.NotEmpty(t, res.ErrorMarkers())
}

func TestRegistry_PanicBecomesFailure(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("panics", &Registered{
		NewParams: func() any { return new(echoParams) },
		Fn:        panicTask,
	})

	res := r.Run(context.Background(), "panics", &Input{}, &echoParams{Msg: "x"})
	require.Equal(t, 1, res.Status)
	require.Len(t, res.ErrorMarkers(), 1)
	require.Contains(t, res.ErrorMarkers()[0].Msg, "boom: x")
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	reg := &Registered{
		NewParams: func() any { return new(echoParams) },
		Fn:        echoTask,
	}
	r.Register("echo", reg)
	require.Panics(t, func() { r.Register("echo", reg) })
}

func TestRegistry_MalformedHandlerPanics(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.Panics(t, func() {
		r.Register("bad", &Registered{
			NewParams: func() any { return new(echoParams) },
			Fn:        func() {},
		})
	})
}

func TestSeverityString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "info", SeverityInfo.String())
	require.Equal(t, "warning", SeverityWarning.String())
	require.Equal(t, "error", SeverityError.String())
}
