package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/ctxlog"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/flow"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/task"
)

// Run executes the configured flow, step by step in file order. The first
// failing step stops the run; its markers are logged before returning.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	file, err := flow.Load(ctx, cfg.FlowPath)
	if err != nil {
		return fmt.Errorf("failed to load flow: %w", err)
	}
	fl, err := file.Flow(cfg.FlowName)
	if err != nil {
		return err
	}

	runDir, err := filepath.Abs(cfg.RunDir)
	if err != nil {
		return fmt.Errorf("failed to resolve run directory: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	if len(fl.Steps) == 0 {
		a.logger.Warn("Flow defines no steps, nothing to execute.", "flow", fl.Name)
		return nil
	}

	a.logger.Info("Starting flow execution.", "flow", fl.Name, "steps", len(fl.Steps))
	scope := flow.NewScope()
	for _, step := range fl.Steps {
		logger := a.logger.With("step", step.Name, "task", step.TaskType)

		registered, ok := a.registry.Lookup(step.TaskType)
		if !ok {
			return fmt.Errorf("step %q uses unknown task type %q", step.Name, step.TaskType)
		}

		params := registered.NewParams()
		if err := step.Decode(params, scope.EvalContext()); err != nil {
			return err
		}

		logger.Info("Starting step.")
		res := a.registry.Run(ctxlog.WithLogger(ctx, logger), step.TaskType, &task.Input{RunDir: runDir}, params)
		logMarkers(logger, res)

		if res.Status != 0 {
			return fmt.Errorf("step %q failed", step.Name)
		}
		if err := scope.AddStep(step.Name, res); err != nil {
			return err
		}
		logger.Info("Finished step.")
	}

	a.logger.Info("Flow execution finished.", "flow", fl.Name)
	return nil
}

// logMarkers relays a task's markers at their own severity.
func logMarkers(logger *slog.Logger, res *task.Result) {
	for _, m := range res.Markers {
		switch m.Severity {
		case task.SeverityError:
			logger.Error(m.Msg)
		case task.SeverityWarning:
			logger.Warn(m.Msg)
		default:
			logger.Info(m.Msg)
		}
	}
}
