package bindings

import (
	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/engine/console"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
)

// Console exposes c to the snippet as "console"
func Console(c *console.Console) sandbox.Binding {
	return sandbox.Named("console", func(vm *goja.Runtime) goja.Value {
		return c.Bind(vm)
	})
}
