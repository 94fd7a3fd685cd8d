package bindings

import (
	"strings"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
)

// DocumentBinding exposes a stand-in "document" whose lookups return inert
// mount containers, so ReactDOM.render(el, document.getElementById(...))
// works without a browser.
type DocumentBinding struct{}

// Names implements sandbox.Binding
func (DocumentBinding) Names() []string {
	return []string{"document"}
}

// Bind implements sandbox.Binding
func (DocumentBinding) Bind(s *sandbox.Scope) ([]goja.Value, error) {
	vm := s.VM
	container := func(id string) goja.Value {
		el := vm.NewObject()
		el.Set("id", id)
		el.Set("nodeType", 1)
		el.Set("tagName", "DIV")
		return el
	}

	doc := vm.NewObject()
	doc.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return container(call.Argument(0).String())
	})
	doc.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		return container(strings.TrimPrefix(call.Argument(0).String(), "#"))
	})
	return []goja.Value{doc}, nil
}
