package console

import (
	"strings"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Bind builds the JS console object for vm. The object is meant to be
// passed to a snippet as a parameter, not installed as a global.
func (c *Console) Bind(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()
	obj.Set("log", c.makeFunc(vm, types.KindPlain))
	obj.Set("debug", c.makeFunc(vm, types.KindPlain))
	obj.Set("info", c.makeFunc(vm, types.KindInfo))
	obj.Set("warn", c.makeFunc(vm, types.KindWarning))
	obj.Set("error", c.makeFunc(vm, types.KindError))
	return obj
}

func (c *Console) makeFunc(vm *goja.Runtime, kind types.Kind) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		defer func() {
			// A logging call must never surface as a snippet failure
			_ = recover()
		}()

		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = FormatValue(vm, arg)
		}
		c.Emit(kind, strings.Join(parts, " "))
		return goja.Undefined()
	}
}

// FormatValue renders a JS value for display. Strings are verbatim, plain
// objects and arrays are JSON, errors and functions use their string form.
// It never panics.
func FormatValue(vm *goja.Runtime, v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}

	obj, isObject := v.(*goja.Object)
	if !isObject {
		return tryString(vm, v, "[unprintable]")
	}

	fallback := "[object " + obj.ClassName() + "]"
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return tryString(vm, obj, fallback)
	}
	if obj.ClassName() == "Error" {
		return tryString(vm, obj, fallback)
	}
	if s, ok := Stringify(vm, obj); ok {
		return s
	}
	return tryString(vm, obj, fallback)
}

// Stringify runs JSON.stringify(v). ok is false when the value has no JSON
// form (undefined, functions) or stringify threw (cycles, BigInt).
func Stringify(vm *goja.Runtime, v goja.Value) (s string, ok bool) {
	ex := vm.Try(func() {
		json := vm.Get("JSON").ToObject(vm)
		fn, isFunc := goja.AssertFunction(json.Get("stringify"))
		if !isFunc {
			return
		}
		res, err := fn(json, v)
		if err != nil || res == nil || goja.IsUndefined(res) {
			return
		}
		s, ok = res.String(), true
	})
	if ex != nil {
		return "", false
	}
	return s, ok
}

func tryString(vm *goja.Runtime, v goja.Value, fallback string) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fallback
		}
	}()
	if ex := vm.Try(func() { s = v.String() }); ex != nil {
		return fallback
	}
	return s
}
