package bindings

import (
	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

const initAction = "@@redux/INIT"

// reducerDispatchMessage is the message Redux itself throws
const reducerDispatchMessage = "Reducers may not dispatch actions."

// ReduxBinding exposes a minimal Redux as "Redux"
type ReduxBinding struct{}

// Names implements sandbox.Binding
func (ReduxBinding) Names() []string {
	return []string{"Redux"}
}

// Bind implements sandbox.Binding
func (ReduxBinding) Bind(s *sandbox.Scope) ([]goja.Value, error) {
	return []goja.Value{NewRedux(s.VM)}, nil
}

// NewRedux builds the Redux handle for vm
func NewRedux(vm *goja.Runtime) *goja.Object {
	redux := vm.NewObject()
	redux.Set("createStore", func(call goja.FunctionCall) goja.Value {
		reducer, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("Expected the root reducer to be a function"))
		}
		st := &store{vm: vm, reducer: reducer, state: call.Argument(1)}
		if _, isEnhancer := goja.AssertFunction(st.state); isEnhancer {
			st.state = goja.Undefined()
		}

		action := vm.NewObject()
		action.Set("type", initAction)
		st.dispatch(action)
		return st.object()
	})
	redux.Set("combineReducers", func(call goja.FunctionCall) goja.Value {
		return combineReducers(vm, call.Argument(0))
	})
	return redux
}

type listener struct {
	fn     goja.Callable
	active bool
}

type store struct {
	vm          *goja.Runtime
	reducer     goja.Callable
	state       goja.Value
	listeners   []*listener
	dispatching bool
}

func (s *store) object() *goja.Object {
	vm := s.vm
	obj := vm.NewObject()
	obj.Set("getState", func(goja.FunctionCall) goja.Value {
		return s.state
	})
	obj.Set("dispatch", func(call goja.FunctionCall) goja.Value {
		return s.dispatch(call.Argument(0))
	})
	obj.Set("subscribe", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("Expected the listener to be a function"))
		}
		l := &listener{fn: fn, active: true}
		s.listeners = append(s.listeners, l)
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			s.unsubscribe(l)
			return goja.Undefined()
		})
	})
	obj.Set("replaceReducer", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("Expected the nextReducer to be a function"))
		}
		s.reducer = fn
		return goja.Undefined()
	})
	return obj
}

func (s *store) dispatch(action goja.Value) goja.Value {
	vm := s.vm
	obj, ok := action.(*goja.Object)
	if !ok || obj.ClassName() != "Object" {
		panic(vm.NewTypeError("Actions must be plain objects"))
	}
	if t := obj.Get("type"); t == nil || goja.IsUndefined(t) {
		panic(vm.NewTypeError(`Actions may not have an undefined "type" property`))
	}
	if s.dispatching {
		throwError(vm, types.NewExecutionError(types.PhaseExecute, "Error", reducerDispatchMessage))
	}

	s.dispatching = true
	next, err := s.reducer(goja.Undefined(), s.state, action)
	s.dispatching = false
	if err != nil {
		throwError(vm, err)
	}
	s.state = next

	for _, l := range append([]*listener(nil), s.listeners...) {
		if !l.active {
			continue
		}
		if _, err := l.fn(goja.Undefined()); err != nil {
			throwError(vm, err)
		}
	}
	return action
}

func (s *store) unsubscribe(target *listener) {
	target.active = false
	kept := s.listeners[:0]
	for _, l := range s.listeners {
		if l != target {
			kept = append(kept, l)
		}
	}
	s.listeners = kept
}

func combineReducers(vm *goja.Runtime, arg goja.Value) goja.Value {
	reducers, ok := arg.(*goja.Object)
	if !ok {
		panic(vm.NewTypeError("combineReducers expects an object of reducers"))
	}

	type entry struct {
		key string
		fn  goja.Callable
	}
	var entries []entry
	for _, k := range reducers.Keys() {
		if fn, ok := goja.AssertFunction(reducers.Get(k)); ok {
			entries = append(entries, entry{key: k, fn: fn})
		}
	}

	return vm.ToValue(func(call goja.FunctionCall) goja.Value {
		prev, _ := call.Argument(0).(*goja.Object)
		action := call.Argument(1)

		next := vm.NewObject()
		for _, e := range entries {
			var slice goja.Value = goja.Undefined()
			if prev != nil {
				slice = prev.Get(e.key)
			}
			v, err := e.fn(goja.Undefined(), slice, action)
			if err != nil {
				throwError(vm, err)
			}
			if v == nil || goja.IsUndefined(v) {
				panic(vm.NewTypeError(`Reducer "` + e.key + `" returned undefined`))
			}
			next.Set(e.key, v)
		}
		return next
	})
}

