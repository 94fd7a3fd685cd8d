// Package transform lowers extended (JSX) snippet syntax into plain
// JavaScript the sandbox can run.
//
// Transformers never panic and never return Go errors: every failure is a
// TransformError inside types.TransformResult.
package transform

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Transformer converts snippet source into executable code
type Transformer interface {
	Transform(source string) types.TransformResult
}

// Passthrough returns every source unchanged
type Passthrough struct{}

// Transform implements Transformer
func (Passthrough) Transform(source string) types.TransformResult {
	return types.Executable(source)
}

// Snippets may use top-level return, so both parse attempts see the source
// as a function body. The header shares the first line with the source to
// keep reported line numbers aligned.
const (
	wrapName = "__snippet__"
	header   = "function " + wrapName + "() {"
)

// JSX lowers markup to createElement calls using esbuild
type JSX struct {
	Factory  string
	Fragment string
}

// NewJSX creates a transformer targeting the React binding
func NewJSX() *JSX {
	return &JSX{
		Factory:  "React.createElement",
		Fragment: "React.Fragment",
	}
}

// Transform implements Transformer. Source that already parses as plain
// JavaScript is returned byte for byte.
func (j *JSX) Transform(source string) (result types.TransformResult) {
	defer func() {
		if r := recover(); r != nil {
			result = types.TransformFailure(fmt.Sprintf("transform failed: %v", r), 0, 0)
		}
	}()

	if strings.TrimSpace(source) == "" {
		return types.Executable(source)
	}

	wrapped := header + source + "\n}"

	plain := api.Transform(wrapped, j.options(api.LoaderJS))
	if len(plain.Errors) == 0 {
		return types.Executable(source)
	}

	lowered := api.Transform(wrapped, j.options(api.LoaderJSX))
	if len(lowered.Errors) == 0 {
		body, ok := unwrap(string(lowered.Code))
		if !ok {
			return types.TransformFailure("unexpected transform output", 0, 0)
		}
		return types.Executable(body)
	}

	// Same diagnostic with and without JSX: an ordinary syntax error that
	// the executor reports in its own phase.
	if sameDiagnostic(plain.Errors[0], lowered.Errors[0]) {
		return types.Executable(source)
	}

	msg := lowered.Errors[0]
	line, column := position(msg)
	return types.TransformFailure(msg.Text, line, column)
}

func (j *JSX) options(loader api.Loader) api.TransformOptions {
	return api.TransformOptions{
		Loader:      loader,
		JSX:         api.JSXTransform,
		JSXFactory:  j.Factory,
		JSXFragment: j.Fragment,
		Target:      api.ESNext,
		Sourcefile:  "snippet.jsx",
		LogLevel:    api.LogLevelSilent,
	}
}

// unwrap extracts the function body from esbuild output. Anything printed
// before the function (injected helpers) is kept in front of the body.
func unwrap(code string) (string, bool) {
	idx := strings.Index(code, header)
	if idx < 0 {
		return "", false
	}
	prefix := code[:idx]
	rest := code[idx+len(header):]
	end := strings.LastIndex(rest, "}")
	if end < 0 {
		return "", false
	}
	body := strings.TrimPrefix(rest[:end], "\n")
	return prefix + body, true
}

// position converts an esbuild location to 1-based line and column in the
// caller's source
func position(msg api.Message) (line, column int) {
	if msg.Location == nil {
		return 0, 0
	}
	line = msg.Location.Line
	column = msg.Location.Column
	if line == 1 {
		column -= len(header)
		if column < 0 {
			column = 0
		}
	}
	return line, column + 1
}

func sameDiagnostic(a, b api.Message) bool {
	if a.Text != b.Text {
		return false
	}
	if a.Location == nil || b.Location == nil {
		return a.Location == b.Location
	}
	return a.Location.Line == b.Location.Line && a.Location.Column == b.Location.Column
}
