package bindings

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/engine/console"
	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// DefaultMaxDepth bounds nested component resolution
const DefaultMaxDepth = 256

// Class components need a real JS constructor so snippets can extend it
const componentClasses = `(function () {
	function Component(props, context) {
		this.props = props;
		this.context = context;
		this.state = this.state || {};
	}
	Component.prototype.isReactComponent = {};
	Component.prototype.setState = function () {};
	Component.prototype.forceUpdate = function () {};

	function PureComponent(props, context) {
		Component.call(this, props, context);
	}
	PureComponent.prototype = Object.create(Component.prototype);
	PureComponent.prototype.constructor = PureComponent;

	return { Component: Component, PureComponent: PureComponent };
})()`

var unitless = map[string]bool{
	"opacity": true, "zIndex": true, "fontWeight": true, "lineHeight": true,
	"flex": true, "flexGrow": true, "flexShrink": true, "order": true, "zoom": true,
}

// React is one run's React and ReactDOM handles. Elements are only
// meaningful to the React value that created them.
type React struct {
	vm       *goja.Runtime
	marker   *goja.Symbol
	fragment *goja.Object
	react    *goja.Object
	dom      *goja.Object
	root     goja.Value
	maxDepth int
}

// ReactBinding exposes React and ReactDOM and makes returned elements
// renderable
type ReactBinding struct {
	MaxDepth int
}

// Names implements sandbox.Binding
func (ReactBinding) Names() []string {
	return []string{"React", "ReactDOM"}
}

// Bind implements sandbox.Binding
func (b ReactBinding) Bind(s *sandbox.Scope) ([]goja.Value, error) {
	r, err := NewReact(s.VM, b.MaxDepth)
	if err != nil {
		return nil, err
	}
	s.SetRenderer(r)
	return []goja.Value{r.Object(), r.DOMObject()}, nil
}

// NewReact builds the handles for vm
func NewReact(vm *goja.Runtime, maxDepth int) (*React, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	classes, err := vm.RunString(componentClasses)
	if err != nil {
		return nil, fmt.Errorf("failed to define component classes: %w", err)
	}

	r := &React{
		vm:       vm,
		marker:   goja.NewSymbol("react.element"),
		fragment: vm.NewObject(),
		maxDepth: maxDepth,
	}
	r.fragment.Set("displayName", "Fragment")
	r.react = r.buildReact(classes.ToObject(vm))
	r.dom = r.buildDOM()
	return r, nil
}

// Object returns the React handle
func (r *React) Object() *goja.Object { return r.react }

// DOMObject returns the ReactDOM handle
func (r *React) DOMObject() *goja.Object { return r.dom }

// Root returns the element last passed to ReactDOM.render, or nil
func (r *React) Root() goja.Value { return r.root }

func (r *React) buildReact(classes *goja.Object) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	obj.Set("version", "18.2.0")
	obj.Set("createElement", r.createElement)
	obj.Set("Fragment", r.fragment)
	obj.Set("Component", classes.Get("Component"))
	obj.Set("PureComponent", classes.Get("PureComponent"))
	obj.Set("isValidElement", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.IsElement(call.Argument(0)))
	})
	obj.Set("memo", func(call goja.FunctionCall) goja.Value {
		return call.Argument(0)
	})

	// Hooks. Trees render once, so state setters and effects are inert.
	obj.Set("useState", func(call goja.FunctionCall) goja.Value {
		return vm.NewArray(r.lazy(call.Argument(0)), r.noop())
	})
	obj.Set("useReducer", func(call goja.FunctionCall) goja.Value {
		state := call.Argument(1)
		if init, ok := goja.AssertFunction(call.Argument(2)); ok {
			state = r.must(init(goja.Undefined(), state))
		}
		return vm.NewArray(state, r.noop())
	})
	obj.Set("useEffect", r.noop())
	obj.Set("useLayoutEffect", r.noop())
	obj.Set("useMemo", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("useMemo requires a function"))
		}
		return r.must(fn(goja.Undefined()))
	})
	obj.Set("useCallback", func(call goja.FunctionCall) goja.Value {
		return call.Argument(0)
	})
	obj.Set("useRef", func(call goja.FunctionCall) goja.Value {
		ref := vm.NewObject()
		ref.Set("current", call.Argument(0))
		return ref
	})
	return obj
}

func (r *React) buildDOM() *goja.Object {
	vm := r.vm
	setRoot := func(call goja.FunctionCall) goja.Value {
		r.root = call.Argument(0)
		return goja.Undefined()
	}

	dom := vm.NewObject()
	dom.Set("render", setRoot)
	dom.Set("createRoot", func(goja.FunctionCall) goja.Value {
		root := vm.NewObject()
		root.Set("render", setRoot)
		root.Set("unmount", func(goja.FunctionCall) goja.Value {
			r.root = nil
			return goja.Undefined()
		})
		return root
	})
	dom.Set("renderToString", func(call goja.FunctionCall) goja.Value {
		tree, err := r.Resolve(call.Argument(0))
		if err != nil {
			r.throw(err)
		}
		return vm.ToValue(tree.HTML())
	})
	return dom
}

func (r *React) createElement(call goja.FunctionCall) goja.Value {
	vm := r.vm
	typ := call.Argument(0)
	props := vm.NewObject()
	key := goja.Null()

	if config, ok := call.Argument(1).(*goja.Object); ok {
		for _, k := range config.Keys() {
			switch k {
			case "key":
				key = vm.ToValue(config.Get(k).String())
			case "ref", "__self", "__source":
			default:
				props.Set(k, config.Get(k))
			}
		}
	}

	if len(call.Arguments) == 3 {
		props.Set("children", call.Arguments[2])
	} else if len(call.Arguments) > 3 {
		children := make([]interface{}, 0, len(call.Arguments)-2)
		for _, c := range call.Arguments[2:] {
			children = append(children, c)
		}
		props.Set("children", vm.NewArray(children...))
	}

	if component, ok := typ.(*goja.Object); ok {
		if defaults, ok := component.Get("defaultProps").(*goja.Object); ok {
			for _, k := range defaults.Keys() {
				if v := props.Get(k); v == nil || goja.IsUndefined(v) {
					props.Set(k, defaults.Get(k))
				}
			}
		}
	}

	element := vm.NewObject()
	element.Set("type", typ)
	element.Set("props", props)
	element.Set("key", key)
	element.SetSymbol(r.marker, true)
	return element
}

// IsElement reports whether v was created by this React's createElement
func (r *React) IsElement(v goja.Value) bool {
	obj, ok := v.(*goja.Object)
	if !ok {
		return false
	}
	tag := obj.GetSymbol(r.marker)
	return tag != nil && tag.ToBoolean()
}

// Render implements sandbox.Renderer. A returned element wins over one
// passed to ReactDOM.render.
func (r *React) Render(v goja.Value) (*render.Node, bool, error) {
	target := v
	if !r.IsElement(v) {
		if r.root == nil {
			return nil, false, nil
		}
		target = r.root
	}

	tree, err := r.Resolve(target)
	if err != nil {
		return nil, false, err
	}
	return tree, true, nil
}

// Resolve calls components until only host nodes remain. Several top-level
// nodes are grouped in a fragment.
func (r *React) Resolve(v goja.Value) (*render.Node, error) {
	nodes, err := r.resolve(v, 0)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return render.Fragment(nodes...), nil
}

func (r *React) resolve(v goja.Value, depth int) ([]*render.Node, error) {
	if depth > r.maxDepth {
		return nil, renderError("RangeError", "maximum component depth exceeded")
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}

	obj, isObject := v.(*goja.Object)
	if !isObject {
		if v.ExportType() != nil && v.ExportType().Kind() == reflect.Bool {
			return nil, nil
		}
		return []*render.Node{render.TextNode(v.String())}, nil
	}

	// Arrays count toward depth so a self-containing array hits the limit.
	if obj.ClassName() == "Array" {
		var out []*render.Node
		n := obj.Get("length").ToInteger()
		for i := int64(0); i < n; i++ {
			nodes, err := r.resolve(obj.Get(strconv.FormatInt(i, 10)), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
		return out, nil
	}

	if !r.IsElement(obj) {
		return nil, renderError("Error", fmt.Sprintf("Objects are not valid as a React child (found: %s)", console.FormatValue(r.vm, obj)))
	}

	typ := obj.Get("type")
	props := obj.Get("props").ToObject(r.vm)

	if typ.SameAs(r.fragment) {
		return r.resolve(props.Get("children"), depth+1)
	}
	if typeObj, ok := typ.(*goja.Object); ok {
		if _, isFunc := goja.AssertFunction(typeObj); isFunc {
			return r.component(typeObj, props, depth)
		}
	} else if typ.ExportType() != nil && typ.ExportType().Kind() == reflect.String {
		node, err := r.host(typ.String(), props, depth)
		if err != nil {
			return nil, err
		}
		return []*render.Node{node}, nil
	}

	return nil, renderError("TypeError", fmt.Sprintf(
		"Element type is invalid: expected a string or a component but got: %s", console.FormatValue(r.vm, typ)))
}

func (r *React) component(typ, props *goja.Object, depth int) ([]*render.Node, error) {
	var (
		out goja.Value
		err error
	)

	if proto, ok := typ.Get("prototype").(*goja.Object); ok && truthy(proto.Get("isReactComponent")) {
		inst, err := r.vm.New(typ, props)
		if err != nil {
			return nil, err
		}
		renderFn, ok := goja.AssertFunction(inst.Get("render"))
		if !ok {
			return nil, renderError("TypeError", "class component has no render method")
		}
		out, err = renderFn(inst)
		if err != nil {
			return nil, err
		}
	} else {
		fn, _ := goja.AssertFunction(typ)
		out, err = fn(goja.Undefined(), props)
		if err != nil {
			return nil, err
		}
	}

	return r.resolve(out, depth+1)
}

func (r *React) host(tag string, props *goja.Object, depth int) (*render.Node, error) {
	var attrs []render.Attr
	for _, k := range props.Keys() {
		switch k {
		case "children", "key", "ref", "dangerouslySetInnerHTML":
			continue
		}
		val := props.Get(k)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			continue
		}
		if _, isFunc := goja.AssertFunction(val); isFunc {
			continue
		}

		name := attributeName(k)
		if style, ok := val.(*goja.Object); ok && k == "style" {
			attrs = append(attrs, render.Attr{Key: name, Val: r.style(style)})
			continue
		}
		if b, ok := val.Export().(bool); ok {
			if b {
				attrs = append(attrs, render.Attr{Key: name})
			}
			continue
		}
		attrs = append(attrs, render.Attr{Key: name, Val: val.String()})
	}

	children, err := r.resolve(props.Get("children"), depth+1)
	if err != nil {
		return nil, err
	}
	return render.Element(tag, attrs, children...), nil
}

func (r *React) style(obj *goja.Object) string {
	var parts []string
	for _, k := range obj.Keys() {
		v := obj.Get(k)
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			continue
		}
		value := v.String()
		if kind := v.ExportType(); kind != nil && !unitless[k] && value != "0" {
			switch kind.Kind() {
			case reflect.Int64, reflect.Float64:
				value += "px"
			}
		}
		parts = append(parts, kebab(k)+": "+value)
	}
	return strings.Join(parts, "; ")
}

func (r *React) lazy(v goja.Value) goja.Value {
	if fn, ok := goja.AssertFunction(v); ok {
		return r.must(fn(goja.Undefined()))
	}
	return v
}

func (r *React) noop() goja.Value {
	return r.vm.ToValue(func(goja.FunctionCall) goja.Value { return goja.Undefined() })
}

func (r *React) must(v goja.Value, err error) goja.Value {
	if err != nil {
		r.throw(err)
	}
	return v
}

// throw raises err inside the VM. Exceptions keep their original value.
func (r *React) throw(err error) {
	throwError(r.vm, err)
}

func throwError(vm *goja.Runtime, err error) {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		panic(ex)
	}
	var ee *types.ExecutionError
	if errors.As(err, &ee) && ee.Name != "" {
		if ctor := vm.Get(ee.Name); ctor != nil {
			if obj, cerr := vm.New(ctor, vm.ToValue(ee.Message)); cerr == nil {
				panic(obj)
			}
		}
	}
	panic(vm.NewGoError(err))
}

func renderError(name, message string) error {
	return types.NewExecutionError(types.PhaseExecute, name, message)
}

func attributeName(prop string) string {
	switch prop {
	case "className":
		return "class"
	case "htmlFor":
		return "for"
	}
	return prop
}

func kebab(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if c >= 'A' && c <= 'Z' {
			sb.WriteByte('-')
			sb.WriteRune(c + ('a' - 'A'))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func truthy(v goja.Value) bool {
	return v != nil && v.ToBoolean()
}
