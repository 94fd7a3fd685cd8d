package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/engine/console"
	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

const scriptName = "snippet.js"

var (
	ErrTooManyTimers = errors.New("too many timers scheduled by one run")
	ErrClosed        = errors.New("sandbox runtime is closed")
)

// microtask scheduling rides on the VM's promise job queue
const prelude = `(function (g) {
	g.queueMicrotask = function queueMicrotask(fn) {
		if (typeof fn !== 'function') {
			throw new TypeError('callback must be a function');
		}
		Promise.resolve().then(function () { fn(); });
	};
})(this);`

// Runtime wraps goja VM with security controls
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex
	timers *timerQueue
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{config: config}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runtime) init() error {
	r.vm = goja.New()
	r.timers = newTimerQueue()
	if r.config.MaxCallStackSize > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStackSize)
	}
	return r.setupGlobals()
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}

	r.installTimers()
	if _, err := r.vm.RunString(prelude); err != nil {
		return fmt.Errorf("failed to install prelude: %w", err)
	}
	return nil
}

// Execute compiles code as the body of a function whose parameters are the
// binding names and calls it once. Every failure is captured in the Outcome.
func (r *Runtime) Execute(ctx context.Context, code string, bindings ...Binding) *Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	out := r.execute(ctx, code, bindings)
	out.Duration = time.Since(start)

	if r.timers.len() > 0 {
		out.Deferred = &Deferred{rt: r}
	}
	return out
}

func (r *Runtime) execute(ctx context.Context, code string, bindings []Binding) *Outcome {
	if r.vm == nil {
		return Failed(types.NewExecutionError(types.PhaseExecute, "", ErrClosed.Error()))
	}

	scope := &Scope{VM: r.vm}
	names, args, err := r.bind(scope, bindings)
	if err != nil {
		return Failed(executionError(r.vm, err, 0))
	}

	header := "(function(" + strings.Join(names, ", ") + "){"
	prog, err := goja.Compile(scriptName, header+code+"\n})", false)
	if err != nil {
		return Failed(executionError(r.vm, err, len(header)))
	}

	fnVal, err := r.vm.RunProgram(prog)
	if err != nil {
		return Failed(executionError(r.vm, err, len(header)))
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return Failed(types.NewExecutionError(types.PhaseExecute, "", "snippet did not compile to a function"))
	}

	result, err := r.call(ctx, fn, goja.Undefined(), args...)
	if err != nil {
		return Failed(executionError(r.vm, err, len(header)))
	}

	if scope.renderer != nil {
		tree, rendered, err := r.render(scope.renderer, result)
		if err != nil {
			return Failed(executionError(r.vm, err, len(header)))
		}
		if rendered {
			return Rendered(tree)
		}
	}

	return r.valueOutcome(result)
}

func (r *Runtime) bind(scope *Scope, bindings []Binding) ([]string, []goja.Value, error) {
	var (
		names []string
		args  []goja.Value
		seen  = make(map[string]bool)
	)
	for _, b := range bindings {
		ns := b.Names()
		vs, err := b.Bind(scope)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to bind %s: %w", strings.Join(ns, ", "), err)
		}
		if len(vs) != len(ns) {
			return nil, nil, fmt.Errorf("binding %s returned %d values", strings.Join(ns, ", "), len(vs))
		}
		for _, n := range ns {
			if seen[n] {
				return nil, nil, fmt.Errorf("duplicate binding %q", n)
			}
			seen[n] = true
		}
		names = append(names, ns...)
		args = append(args, vs...)
	}
	return names, args, nil
}

// call invokes fn with host panics recovered and the optional timeout armed
func (r *Runtime) call(ctx context.Context, fn goja.Callable, this goja.Value, args ...goja.Value) (v goja.Value, err error) {
	if r.config.Timeout > 0 {
		stop := r.watch(ctx, r.config.Timeout)
		defer stop()
	}
	defer func() {
		if p := recover(); p != nil {
			err = &HostPanic{Value: p}
		}
	}()
	return fn(this, args...)
}

func (r *Runtime) render(renderer Renderer, v goja.Value) (tree *render.Node, ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &HostPanic{Value: p}
		}
	}()
	return renderer.Render(v)
}

// watch interrupts the VM when timeout elapses or ctx ends. The returned
// function must be called once the guarded call has returned.
func (r *Runtime) watch(ctx context.Context, timeout time.Duration) func() {
	done := make(chan struct{})
	finished := make(chan struct{})
	timer := time.NewTimer(timeout)

	go func() {
		defer close(finished)
		defer timer.Stop()
		select {
		case <-timer.C:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	return func() {
		close(done)
		<-finished
		r.vm.ClearInterrupt()
	}
}

// fire runs one timer callback on behalf of Deferred
func (r *Runtime) fire(ctx context.Context, t *timer) *types.ExecutionError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil
	}
	if _, err := r.call(ctx, t.fn, goja.Undefined(), t.args...); err != nil {
		return executionError(r.vm, err, 0)
	}
	return nil
}

func (r *Runtime) valueOutcome(v goja.Value) *Outcome {
	out := &Outcome{
		Kind:    OutcomeValue,
		Display: console.FormatValue(r.vm, v),
		Value:   exportValue(v),
	}
	if s, ok := console.Stringify(r.vm, v); ok {
		out.JSON = s
	}
	return out
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	if _, isFunc := goja.AssertFunction(val); isFunc {
		return nil
	}
	if _, isSymbol := val.(*goja.Symbol); isSymbol {
		return nil
	}
	return val.Export()
}

// Reset replaces the VM, dropping globals and timers left by the last run
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.init()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.timers = newTimerQueue()
	return nil
}
