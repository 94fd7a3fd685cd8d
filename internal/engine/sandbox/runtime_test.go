package sandbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func newRuntime(t *testing.T, config Config) *Runtime {
	t.Helper()
	rt, err := New(config)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

// logBinding records console.log calls as strings
type logBinding struct {
	mu    sync.Mutex
	lines []string
}

func (b *logBinding) Names() []string { return []string{"console"} }

func (b *logBinding) Bind(s *Scope) ([]goja.Value, error) {
	obj := s.VM.NewObject()
	obj.Set("log", func(call goja.FunctionCall) goja.Value {
		b.mu.Lock()
		b.lines = append(b.lines, call.Argument(0).String())
		b.mu.Unlock()
		return goja.Undefined()
	})
	return []goja.Value{obj}, nil
}

func (b *logBinding) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

func TestRuntimeExecution(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	tests := []struct {
		name    string
		script  string
		display string
		value   interface{}
	}{
		{"simple return", "return 42", "42", int64(42)},
		{"arithmetic", "return 2+2", "4", int64(4)},
		{"math operations", "return Math.sqrt(16)", "4", int64(4)},
		{"string operations", "return 'hello'.toUpperCase()", "HELLO", "HELLO"},
		{"no return", "const x = 1", "undefined", nil},
		{"null", "return null", "null", nil},
		{"object", "return {a: 1, b: [1, 2]}", `{"a":1,"b":[1,2]}`, map[string]interface{}{"a": int64(1), "b": []interface{}{int64(1), int64(2)}}},
		{"function", "return function f() {}", "function f() {}", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := rt.Execute(context.Background(), tt.script)
			require.Equal(t, OutcomeValue, out.Kind, "unexpected error: %v", out.Err)
			assert.Equal(t, tt.display, out.Display)
			assert.Equal(t, tt.value, out.Value)
		})
	}
}

func TestRuntimeJSON(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	out := rt.Execute(context.Background(), "return [1, 'two']")
	assert.Equal(t, `[1,"two"]`, out.JSON)

	out = rt.Execute(context.Background(), "return undefined")
	assert.Empty(t, out.JSON)
	assert.True(t, out.IsUndefined())
}

func TestRuntimeBindingsArePositional(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	out := rt.Execute(context.Background(), "return a + b",
		Named("a", func(vm *goja.Runtime) goja.Value { return vm.ToValue(40) }),
		Named("b", func(vm *goja.Runtime) goja.Value { return vm.ToValue(2) }),
	)
	require.Equal(t, OutcomeValue, out.Kind)
	assert.Equal(t, int64(42), out.Value)
}

func TestRuntimeDuplicateBinding(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	one := func(vm *goja.Runtime) goja.Value { return vm.ToValue(1) }
	out := rt.Execute(context.Background(), "return x", Named("x", one), Named("x", one))

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Contains(t, out.Err.Message, "duplicate binding")
}

func TestRuntimeConsoleCapture(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	logs := &logBinding{}

	out := rt.Execute(context.Background(), "console.log('hi')", logs)

	require.Equal(t, OutcomeValue, out.Kind)
	assert.True(t, out.IsUndefined())
	assert.Equal(t, []string{"hi"}, logs.Lines())
}

func TestRuntimeTotalCapture(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	tests := []struct {
		name    string
		script  string
		errName string
		message string
	}{
		{"error object", "throw new Error('boom')", "Error", "boom"},
		{"type error", "null.x", "TypeError", ""},
		{"custom message", "throw new RangeError('x out of range')", "RangeError", "x out of range"},
		{"thrown string", "throw 'plain'", "", "plain"},
		{"thrown number", "throw 7", "", "7"},
		{"thrown object", "throw {code: 1}", "", `{"code":1}`},
		{"reference error", "missing()", "ReferenceError", "missing is not defined"},
		{"syntax error", "let = ;", "SyntaxError", ""},
		{"stack overflow", "function f() { return f() } f()", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out *Outcome
			assert.NotPanics(t, func() {
				out = rt.Execute(context.Background(), tt.script)
			})
			require.Equal(t, OutcomeFailed, out.Kind)
			require.NotNil(t, out.Err)
			assert.Equal(t, types.PhaseExecute, out.Err.Phase)
			if tt.errName != "" {
				assert.Equal(t, tt.errName, out.Err.Name)
			}
			if tt.message != "" {
				assert.Contains(t, out.Err.Message, tt.message)
			}
		})
	}
}

func TestRuntimeErrorPosition(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	out := rt.Execute(context.Background(), "const a = 1;\nconst b = 2;\nthrow new Error('third')")
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, 3, out.Err.Line)
}

func TestRuntimeHostPanic(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	out := rt.Execute(context.Background(), "explode()",
		Named("explode", func(vm *goja.Runtime) goja.Value {
			return vm.ToValue(func(goja.FunctionCall) goja.Value {
				panic("host failure")
			})
		}),
	)
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Contains(t, out.Err.Message, "host failure")
}

func TestRuntimeSecurity(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	dangerous := []struct {
		name   string
		script string
	}{
		{"require blocked", "return require('fs')"},
		{"process blocked", "return process.exit(1)"},
		{"module blocked", "module.exports = {}"},
		{"exports blocked", "exports.x = 1"},
	}

	for _, tt := range dangerous {
		t.Run(tt.name, func(t *testing.T) {
			out := rt.Execute(context.Background(), tt.script)
			assert.Equal(t, OutcomeFailed, out.Kind)
		})
	}

	out := rt.Execute(context.Background(), "return typeof require")
	assert.Equal(t, "undefined", out.Value)
}

func TestRuntimeUnboundedByDefault(t *testing.T) {
	assert.Zero(t, DefaultConfig().Timeout)
}

func TestRuntimeTimeout(t *testing.T) {
	config := DefaultConfig()
	config.Timeout = 100 * time.Millisecond
	rt := newRuntime(t, config)

	out := rt.Execute(context.Background(), "let i = 0; while (true) { i++ }")
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, "InterruptedError", out.Err.Name)
	assert.Contains(t, out.Err.Message, "timeout")

	// The interrupt must not leak into the next run
	out = rt.Execute(context.Background(), "return 1")
	assert.Equal(t, OutcomeValue, out.Kind)
}

type staticRenderer struct {
	tree *render.Node
}

func (r staticRenderer) Render(v goja.Value) (*render.Node, bool, error) {
	if v.String() != "render-me" {
		return nil, false, nil
	}
	return r.tree, true, nil
}

type rendererBinding struct {
	renderer Renderer
}

func (b rendererBinding) Names() []string { return nil }

func (b rendererBinding) Bind(s *Scope) ([]goja.Value, error) {
	s.SetRenderer(b.renderer)
	return nil, nil
}

func TestRuntimeRenderer(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	tree := render.Element("p", nil, render.TextNode("hi"))
	binding := rendererBinding{renderer: staticRenderer{tree: tree}}

	out := rt.Execute(context.Background(), "return 'render-me'", binding)
	require.Equal(t, OutcomeRendered, out.Kind)
	assert.Same(t, tree, out.Tree)

	out = rt.Execute(context.Background(), "return 'plain'", binding)
	assert.Equal(t, OutcomeValue, out.Kind)
}

func TestRuntimeDeterminism(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	script := "return [1, 2, 3].map(n => ({n, sq: n * n}))"

	first := rt.Execute(context.Background(), script)
	second := rt.Execute(context.Background(), script)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.JSON, second.JSON)
}

func TestRuntimeReset(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	rt.Execute(context.Background(), "globalThis.leak = 1")
	out := rt.Execute(context.Background(), "return typeof leak")
	assert.Equal(t, "number", out.Value)

	require.NoError(t, rt.Reset())
	out = rt.Execute(context.Background(), "return typeof leak")
	assert.Equal(t, "undefined", out.Value)
}

func TestRuntimeClosed(t *testing.T) {
	rt, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	out := rt.Execute(context.Background(), "return 1")
	assert.Equal(t, OutcomeFailed, out.Kind)
}
