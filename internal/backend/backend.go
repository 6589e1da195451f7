// Package backend drives the configure/build/run lifecycle for an EDA tool
// against a build descriptor. Configure generates the tool's input files in
// the work root; build and run invoke the tool synchronously and block
// until the subprocess completes. There is no retry, timeout, or
// cancellation beyond context propagation to the subprocess.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/ctxlog"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/edam"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/fsutil"
)

// ErrNotConfigured is returned when build or run is attempted before
// configure has produced a work root.
var ErrNotConfigured = errors.New("backend: not configured")

// ErrUnsupportedTool is returned for tools without an invocation recipe.
var ErrUnsupportedTool = errors.New("backend: unsupported tool")

// DefaultTool is used when the descriptor selects no tool.
const DefaultTool = "icarus"

// tool is one EDA tool's invocation recipe.
type tool interface {
	Name() string
	// Setup writes the tool's input files into the work root.
	Setup(e *edam.EDAM, workRoot string) error
	// BuildCommand returns the compile/elaborate command line.
	BuildCommand(e *edam.EDAM, workRoot string) (string, []string)
	// RunCommand returns the command line executing the built model.
	RunCommand(e *edam.EDAM, workRoot string) (string, []string)
	// Executable returns the build artifact path, or "" if absent.
	Executable(e *edam.EDAM, workRoot string) string
}

func toolFor(name string) (tool, error) {
	switch name {
	case "", DefaultTool:
		return icarus{}, nil
	case "verilator":
		return verilator{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTool, name)
	}
}

// Backend wraps one descriptor and one work root for the lifecycle calls.
type Backend struct {
	edam       *edam.EDAM
	workRoot   string
	tool       tool
	configured bool
}

// New creates a backend for the descriptor's selected tool.
func New(e *edam.EDAM, workRoot string) (*Backend, error) {
	tl, err := toolFor(e.Tool())
	if err != nil {
		return nil, err
	}
	return &Backend{edam: e, workRoot: workRoot, tool: tl}, nil
}

// FromWorkRoot reconstructs a backend from the descriptor persisted in an
// already-configured work root. The descriptor file is the proof that
// configure ran there; its absence is an error, never an empty fallback.
func FromWorkRoot(workRoot string) (*Backend, error) {
	path, err := edam.Find(workRoot)
	if err != nil {
		return nil, fmt.Errorf("work root %s was not configured: %w", workRoot, err)
	}
	e, err := edam.Load(path)
	if err != nil {
		return nil, err
	}
	b, err := New(e, workRoot)
	if err != nil {
		return nil, err
	}
	b.configured = true
	return b, nil
}

// WorkRoot returns the backend's working directory.
func (b *Backend) WorkRoot() string { return b.workRoot }

// ToolName returns the selected tool's name.
func (b *Backend) ToolName() string { return b.tool.Name() }

// Descriptor returns the build descriptor in use.
func (b *Backend) Descriptor() *edam.EDAM { return b.edam }

// Configure creates the work root, persists the descriptor, and writes the
// tool's input files. No subprocess runs at configure time.
func (b *Backend) Configure(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("tool", b.tool.Name(), "work_root", b.workRoot)

	if err := os.MkdirAll(b.workRoot, 0o755); err != nil {
		return fmt.Errorf("creating work root: %w", err)
	}
	if _, err := b.edam.Save(b.workRoot); err != nil {
		return err
	}
	if err := b.tool.Setup(b.edam, b.workRoot); err != nil {
		return fmt.Errorf("%s setup: %w", b.tool.Name(), err)
	}

	b.configured = true
	logger.Info("Configured backend.", "design", b.edam.Name)
	return nil
}

// Build compiles and elaborates the design, then verifies the expected
// artifact exists. Tool output is captured to <tool>.build.log.
func (b *Backend) Build(ctx context.Context) error {
	if !b.configured {
		return ErrNotConfigured
	}
	logger := ctxlog.FromContext(ctx).With("tool", b.tool.Name(), "work_root", b.workRoot)

	name, args := b.tool.BuildCommand(b.edam, b.workRoot)
	if err := b.invoke(ctx, name, args, b.tool.Name()+".build.log"); err != nil {
		return fmt.Errorf("%s build: %w", b.tool.Name(), err)
	}

	if b.Executable() == "" {
		return fmt.Errorf("%s build produced no artifact in %s", b.tool.Name(), b.workRoot)
	}
	logger.Info("Build completed.", "executable", b.Executable())
	return nil
}

// Run executes the built model with the descriptor's plusargs, overridden
// by extra. Tool output is captured to <tool>.run.log.
func (b *Backend) Run(ctx context.Context, extra map[string]any) error {
	if !b.configured {
		return ErrNotConfigured
	}
	logger := ctxlog.FromContext(ctx).With("tool", b.tool.Name(), "work_root", b.workRoot)

	name, args := b.tool.RunCommand(b.edam, b.workRoot)
	args = append(args, plusargArgs(b.edam, extra)...)
	if err := b.invoke(ctx, name, args, b.tool.Name()+".run.log"); err != nil {
		return fmt.Errorf("%s run: %w", b.tool.Name(), err)
	}
	logger.Info("Run completed.")
	return nil
}

// Executable returns the built model's path, or "" when it does not exist.
func (b *Backend) Executable() string {
	return b.tool.Executable(b.edam, b.workRoot)
}

// RunLog returns the path the run stage logs to.
func (b *Backend) RunLog() string {
	return filepath.Join(b.workRoot, b.tool.Name()+".run.log")
}

// LogFiles lists log files present in the work root.
func (b *Backend) LogFiles() []string {
	return fsutil.Glob(b.workRoot, "*.log", "*.rpt", "transcript")
}

// invoke runs one tool command with the work root as its directory,
// writing the combined output to logName. The command's output is kept even
// when it fails so the log file can be inspected afterwards.
func (b *Backend) invoke(ctx context.Context, name string, args []string, logName string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Invoking tool.", "command", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = b.workRoot

	output, err := cmd.CombinedOutput()
	logPath := filepath.Join(b.workRoot, logName)
	if werr := os.WriteFile(logPath, output, 0o644); werr != nil {
		logger.Warn("Could not write tool log.", "path", logPath, "error", werr)
	}

	if err != nil {
		return fmt.Errorf("%s: %w (see %s)", name, err, logPath)
	}
	return nil
}

// plusargArgs renders the descriptor's plusarg parameters, overridden by
// extra, as +name=value arguments. Bare booleans render as +name when true
// and are omitted when false.
func plusargArgs(e *edam.EDAM, extra map[string]any) []string {
	merged := make(map[string]any)
	for name, p := range e.Parameters {
		if p.Paramtype == edam.ParamTypePlusarg {
			merged[name] = p.Default
		}
	}
	for name, v := range extra {
		merged[name] = v
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	var args []string
	for _, name := range names {
		switch v := merged[name].(type) {
		case bool:
			if v {
				args = append(args, "+"+name)
			}
		case nil:
			args = append(args, "+"+name)
		default:
			args = append(args, fmt.Sprintf("+%s=%v", name, v))
		}
	}
	return args
}
