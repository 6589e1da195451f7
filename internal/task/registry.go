package task

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/ctxlog"
)

// Module is implemented by packages that contribute task handlers.
type Module interface {
	Register(r *Registry)
}

// Registered holds the compiled Go parts of one task.
type Registered struct {
	// NewParams returns a fresh, addressable parameter struct to decode
	// scheduler input into.
	NewParams func() any
	// Fn is the handler with signature
	// func(ctx context.Context, in *Input, params *P) *Result.
	Fn any
}

// Registry maps task names to their handlers for one application instance.
type Registry struct {
	handlers map[string]*Registered
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]*Registered)}
}

// Register adds a task handler under name. Registration happens during
// wiring; a duplicate name or malformed handler is a programming error and
// panics.
func (r *Registry) Register(name string, t *Registered) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("task %q already registered", name))
	}
	if err := validateHandler(t); err != nil {
		panic(fmt.Sprintf("task %q: %v", name, err))
	}
	slog.Debug("Registering task handler.", "name", name)
	r.handlers[name] = t
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (*Registered, bool) {
	t, ok := r.handlers[name]
	return t, ok
}

// Names lists the registered task names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// validateHandler checks the Fn shape once at registration so invocation
// can assume it.
func validateHandler(t *Registered) error {
	if t.NewParams == nil {
		return fmt.Errorf("NewParams is nil")
	}
	fn := reflect.TypeOf(t.Fn)
	if fn == nil || fn.Kind() != reflect.Func {
		return fmt.Errorf("Fn is not a function")
	}
	if fn.NumIn() != 3 || fn.NumOut() != 1 {
		return fmt.Errorf("Fn must be func(ctx, *Input, *Params) *Result")
	}
	if fn.Out(0) != reflect.TypeOf((*Result)(nil)) {
		return fmt.Errorf("Fn must return *Result")
	}
	return nil
}

// Run invokes the named task with already-decoded params. Delegate failures
// are the task's own responsibility to report; a panic escaping the handler
// is caught here, at the task boundary, and reported as a failed result so
// the host process survives.
func (r *Registry) Run(ctx context.Context, name string, in *Input, params any) (result *Result) {
	t, ok := r.handlers[name]
	if !ok {
		return Fail(fmt.Sprintf("unknown task %q", name))
	}

	defer func() {
		if rec := recover(); rec != nil {
			ctxlog.FromContext(ctx).Error("Task panicked.", "task", name, "panic", rec)
			result = Fail(fmt.Sprintf("task %s panicked: %v", name, rec))
		}
	}()

	out := reflect.ValueOf(t.Fn).Call([]reflect.Value{
		reflect.ValueOf(ctx),
		reflect.ValueOf(in),
		reflect.ValueOf(params),
	})
	result = out[0].Interface().(*Result)
	return result
}
