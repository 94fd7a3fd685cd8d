package sandbox

import (
	"context"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Synchronous execution limit, 0 means unbounded
	MaxCallStackSize int           // goja call stack limit
	MaxTimers        int           // Timers a single run may create
	MaxIntervalTicks int           // Ticks an interval fires before it is dropped
	MinInterval      time.Duration // Lower clamp for setInterval periods
}

// DefaultConfig returns the configuration used by the server
func DefaultConfig() Config {
	return Config{
		Timeout:          0,
		MaxCallStackSize: 4096,
		MaxTimers:        256,
		MaxIntervalTicks: 100,
		MinInterval:      time.Millisecond,
	}
}

// OutcomeKind discriminates Outcome
type OutcomeKind string

const (
	OutcomeValue    OutcomeKind = "value"
	OutcomeRendered OutcomeKind = "rendered"
	OutcomeFailed   OutcomeKind = "failed"
)

// Outcome is the terminal result of a run. Exactly one payload is set:
// Value/Display/JSON, Tree, or Err.
type Outcome struct {
	Kind     OutcomeKind           `json:"kind"`
	Value    interface{}           `json:"-"`                 // exported Go form, may hold funcs
	Display  string                `json:"display,omitempty"` // console form of Value
	JSON     string                `json:"json,omitempty"`    // empty when Value is not serializable
	Tree     *render.Node          `json:"tree,omitempty"`
	Err      *types.ExecutionError `json:"error,omitempty"`
	Duration time.Duration         `json:"duration"`

	// Deferred holds timers the run scheduled. nil when there are none.
	Deferred *Deferred `json:"-"`
}

// Failed wraps err as an outcome
func Failed(err *types.ExecutionError) *Outcome {
	return &Outcome{Kind: OutcomeFailed, Err: err}
}

// Rendered wraps a host tree as an outcome
func Rendered(tree *render.Node) *Outcome {
	return &Outcome{Kind: OutcomeRendered, Tree: tree}
}

// IsUndefined reports whether a value outcome carries no value
func (o *Outcome) IsUndefined() bool {
	return o.Kind == OutcomeValue && o.Display == "undefined"
}

// Pending reports timers still queued for the run
func (o *Outcome) Pending() int {
	if o.Deferred == nil {
		return 0
	}
	return o.Deferred.Pending()
}

// Binding contributes named parameters to a snippet. Names and the values
// returned by Bind must line up.
type Binding interface {
	Names() []string
	Bind(s *Scope) ([]goja.Value, error)
}

// Renderer turns a snippet's return value into a host tree. ok is false
// when nothing renderable was produced.
type Renderer interface {
	Render(v goja.Value) (tree *render.Node, ok bool, err error)
}

// Scope is the per-run view handed to bindings
type Scope struct {
	VM       *goja.Runtime
	renderer Renderer
}

// SetRenderer installs the renderer consulted after the snippet returns
func (s *Scope) SetRenderer(r Renderer) {
	s.renderer = r
}

// Executor runs executable code with an ordered list of bindings
type Executor interface {
	Execute(ctx context.Context, code string, bindings ...Binding) *Outcome
}

// Named binds a single parameter to the value built by factory
func Named(name string, factory func(vm *goja.Runtime) goja.Value) Binding {
	return namedBinding{name: name, factory: factory}
}

type namedBinding struct {
	name    string
	factory func(vm *goja.Runtime) goja.Value
}

func (b namedBinding) Names() []string { return []string{b.name} }

func (b namedBinding) Bind(s *Scope) ([]goja.Value, error) {
	return []goja.Value{b.factory(s.VM)}, nil
}
