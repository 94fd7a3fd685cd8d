package bindings

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/engine/console"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/engine/sink"
	"github.com/GriffinCanCode/playground/internal/engine/transform"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func execute(t *testing.T, code string, bindings ...sandbox.Binding) *sandbox.Outcome {
	t.Helper()
	rt, err := sandbox.New(sandbox.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt.Execute(context.Background(), code, bindings...)
}

func ui() []sandbox.Binding {
	return []sandbox.Binding{ReactBinding{}, DocumentBinding{}}
}

func renderedHTML(t *testing.T, out *sandbox.Outcome) string {
	t.Helper()
	require.Equal(t, sandbox.OutcomeRendered, out.Kind, "unexpected outcome: %+v", out.Err)
	return out.Tree.HTML()
}

func TestConsoleBinding(t *testing.T) {
	s := sink.New(sink.DefaultConfig(), nil)
	c := console.New(s)

	out := execute(t, "console.log('hi'); console.warn('careful')", Console(c))

	require.Equal(t, sandbox.OutcomeValue, out.Kind)
	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, types.KindPlain, entries[0].Kind)
	assert.Equal(t, "hi", entries[0].Text)
	assert.Equal(t, types.KindWarning, entries[1].Kind)
}

func TestReactRendersReturnedElement(t *testing.T) {
	out := execute(t, `
		return React.createElement('div', {className: 'box', id: 'x'},
			'Hello ', React.createElement('b', null, 'World'))
	`, ui()...)

	assert.Equal(t, `<div class="box" id="x">Hello <b>World</b></div>`, renderedHTML(t, out))
}

func TestReactFunctionComponentWithHooks(t *testing.T) {
	out := execute(t, `
		function Counter(props) {
			const [n, setN] = React.useState(() => props.start);
			const doubled = React.useMemo(() => n * 2, [n]);
			const ref = React.useRef(null);
			React.useEffect(() => { throw new Error('effects never run') }, []);
			return React.createElement('span', {onClick: () => setN(n + 1)}, 'Count: ', n, '/', doubled);
		}
		return React.createElement(Counter, {start: 3})
	`, ui()...)

	assert.Equal(t, "<span>Count: 3/6</span>", renderedHTML(t, out))
}

func TestReactFragmentsAndLists(t *testing.T) {
	out := execute(t, `
		return React.createElement(React.Fragment, null,
			[1, 2].map(i => React.createElement('li', {key: i}, i)), null, false, 'tail')
	`, ui()...)

	assert.Equal(t, "<li>1</li><li>2</li>tail", renderedHTML(t, out))
}

func TestReactDOMRender(t *testing.T) {
	out := execute(t, `
		ReactDOM.render(React.createElement('p', null, 'mounted'), document.getElementById('root'));
	`, ui()...)

	assert.Equal(t, "<p>mounted</p>", renderedHTML(t, out))
}

func TestReactCreateRoot(t *testing.T) {
	out := execute(t, `
		const root = ReactDOM.createRoot(document.querySelector('#app'));
		root.render(React.createElement('em', null, 'root'));
	`, ui()...)

	assert.Equal(t, "<em>root</em>", renderedHTML(t, out))
}

func TestReactClassComponent(t *testing.T) {
	out := execute(t, `
		class Hello extends React.Component {
			render() { return React.createElement('h1', null, 'Hi ' + this.props.name) }
		}
		Hello.defaultProps = {name: 'nobody'};
		return React.createElement('div', null,
			React.createElement(Hello, {name: 'Ada'}),
			React.createElement(Hello))
	`, ui()...)

	assert.Equal(t, "<div><h1>Hi Ada</h1><h1>Hi nobody</h1></div>", renderedHTML(t, out))
}

func TestReactAttributes(t *testing.T) {
	out := execute(t, `
		return React.createElement('button', {
			style: {padding: 10, backgroundColor: 'red', opacity: 0.5, margin: 0},
			disabled: true,
			hidden: false,
			onClick: () => {},
			htmlFor: 'field',
			title: undefined,
		}, 'Go')
	`, ui()...)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML(t, out)))
	require.NoError(t, err)
	button := doc.Find("button")
	style, _ := button.Attr("style")
	assert.Equal(t, "padding: 10px; background-color: red; opacity: 0.5; margin: 0", style)
	_, disabled := button.Attr("disabled")
	assert.True(t, disabled)
	_, hidden := button.Attr("hidden")
	assert.False(t, hidden)
	_, onclick := button.Attr("onClick")
	assert.False(t, onclick)
	forAttr, _ := button.Attr("for")
	assert.Equal(t, "field", forAttr)
}

func TestReactComponentErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
	}{
		{
			name:    "component throws",
			code:    `function Bad() { throw new Error('render failed') } return React.createElement(Bad)`,
			message: "render failed",
		},
		{
			name:    "unbounded recursion",
			code:    `function Loop() { return React.createElement(Loop) } return React.createElement(Loop)`,
			message: "maximum component depth exceeded",
		},
		{
			name:    "object child",
			code:    `return React.createElement('div', null, {a: 1})`,
			message: "Objects are not valid as a React child",
		},
		{
			name:    "invalid type",
			code:    `return React.createElement(42)`,
			message: "Element type is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := execute(t, tt.code, ui()...)
			require.Equal(t, sandbox.OutcomeFailed, out.Kind)
			assert.Equal(t, types.PhaseExecute, out.Err.Phase)
			assert.Contains(t, out.Err.Message, tt.message)
		})
	}
}

func TestReactValueWhenNothingRendered(t *testing.T) {
	out := execute(t, `return React.isValidElement(React.createElement('a')) && !React.isValidElement({type: 'a'})`, ui()...)

	require.Equal(t, sandbox.OutcomeValue, out.Kind)
	assert.Equal(t, true, out.Value)
}

func TestRenderToString(t *testing.T) {
	out := execute(t, `return ReactDOM.renderToString(React.createElement('i', null, 'x < y'))`, ui()...)

	require.Equal(t, sandbox.OutcomeValue, out.Kind)
	assert.Equal(t, "<i>x &lt; y</i>", out.Value)
}

func TestRenderToStringThrowsIntoSnippet(t *testing.T) {
	out := execute(t, `
		function Bad() { throw new TypeError('nope') }
		try {
			ReactDOM.renderToString(React.createElement(Bad));
		} catch (e) {
			return e.name + ': ' + e.message;
		}
	`, ui()...)

	require.Equal(t, sandbox.OutcomeValue, out.Kind)
	assert.Equal(t, "TypeError: nope", out.Value)
}

func TestReactSelfContainingArray(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"returned element", `const a = []; a.push(a); return <div>{a}</div>;`},
		{"renderToString", `const a = []; a.push(a); return ReactDOM.renderToString(<div>{a}</div>);`},
		{"nested cycle", `const a = [], b = [a]; a.push(<i>{b}</i>); return <ul>{a}</ul>;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := transform.NewJSX().Transform(tt.code)
			require.True(t, result.OK(), "transform failed: %v", result.Err)

			out := execute(t, result.Code, ui()...)
			require.Equal(t, sandbox.OutcomeFailed, out.Kind)
			assert.Equal(t, types.PhaseExecute, out.Err.Phase)
			assert.Equal(t, "RangeError", out.Err.Name)
			assert.Contains(t, out.Err.Message, "maximum component depth exceeded")
		})
	}
}

func TestReactNestedArraysRender(t *testing.T) {
	out := execute(t, `return React.createElement('p', null, [['a', ['b']], 'c'])`, ui()...)
	assert.Equal(t, `<p>abc</p>`, renderedHTML(t, out))
}

func TestReactWithJSXTransform(t *testing.T) {
	result := transform.NewJSX().Transform(`
const App = ({title}) => <div className="app"><h1>{title}</h1><>{[1, 2].map(n => <i key={n}>{n}</i>)}</></div>;
return <App title="Hi" />;`)
	require.True(t, result.OK(), "transform failed: %v", result.Err)

	out := execute(t, result.Code, ui()...)
	assert.Equal(t, `<div class="app"><h1>Hi</h1><i>1</i><i>2</i></div>`, renderedHTML(t, out))
}

func TestReactRenderDeterminism(t *testing.T) {
	code := `return React.createElement('ul', null, ['a', 'b'].map(s => React.createElement('li', {key: s}, s)))`

	first := execute(t, code, ui()...)
	second := execute(t, code, ui()...)
	assert.Equal(t, renderedHTML(t, first), renderedHTML(t, second))
}

const counterReducer = `
	function counter(state = 0, action) {
		switch (action.type) {
		case 'INCREMENT': return state + 1;
		case 'DECREMENT': return state - 1;
		default: return state;
		}
	}
`

func TestReduxStore(t *testing.T) {
	out := execute(t, counterReducer+`
		const store = Redux.createStore(counter);
		let calls = 0;
		const unsubscribe = store.subscribe(() => calls++);
		store.dispatch({type: 'INCREMENT'});
		store.dispatch({type: 'INCREMENT'});
		unsubscribe();
		store.dispatch({type: 'DECREMENT'});
		return {state: store.getState(), calls};
	`, ReduxBinding{})

	require.Equal(t, sandbox.OutcomeValue, out.Kind, "unexpected error: %v", out.Err)
	assert.Equal(t, map[string]interface{}{"state": int64(1), "calls": int64(2)}, out.Value)
}

func TestReduxPreloadedState(t *testing.T) {
	out := execute(t, counterReducer+`
		const store = Redux.createStore(counter, 10);
		store.dispatch({type: 'INCREMENT'});
		return store.getState();
	`, ReduxBinding{})

	assert.Equal(t, int64(11), out.Value)
}

func TestReduxCombineReducers(t *testing.T) {
	out := execute(t, counterReducer+`
		const root = Redux.combineReducers({
			count: counter,
			log: (s = [], a) => s.concat(a.type),
		});
		const store = Redux.createStore(root);
		store.dispatch({type: 'INCREMENT'});
		return store.getState();
	`, ReduxBinding{})

	assert.Equal(t, map[string]interface{}{
		"count": int64(1),
		"log":   []interface{}{"@@redux/INIT", "INCREMENT"},
	}, out.Value)
}

func TestReduxErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
	}{
		{"non-object action", `Redux.createStore(counter).dispatch('nope')`, "plain objects"},
		{"missing type", `Redux.createStore(counter).dispatch({})`, "undefined \"type\""},
		{"reducer not function", `Redux.createStore(1)`, "root reducer"},
		{"reducer throws", `Redux.createStore((s, a) => { if (a.type === 'x') throw new Error('bad'); return 0 }).dispatch({type: 'x'})`, "bad"},
		{"dispatch in reducer", `
			let store;
			store = Redux.createStore((s = 0, a) => { if (a.type === 'x') store.dispatch({type: 'y'}); return s });
			store.dispatch({type: 'x'});
		`, "Reducers may not dispatch"},
		{"combined reducer returns undefined", `Redux.createStore(Redux.combineReducers({a: () => undefined}))`, `Reducer "a" returned undefined`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := execute(t, counterReducer+tt.code, ReduxBinding{})
			require.Equal(t, sandbox.OutcomeFailed, out.Kind)
			assert.Contains(t, out.Err.Message, tt.message)
		})
	}
}

func TestReduxDispatchInReducerThrowsError(t *testing.T) {
	out := execute(t, `
		let store;
		store = Redux.createStore((s = 0, a) => { if (a.type === 'x') store.dispatch({type: 'y'}); return s });
		try {
			store.dispatch({type: 'x'});
		} catch (e) {
			return e.name + ': ' + e.message;
		}
	`, ReduxBinding{})

	require.Equal(t, sandbox.OutcomeValue, out.Kind)
	assert.Equal(t, "Error: Reducers may not dispatch actions.", out.Value)
}

func TestReduxDrivesReactRender(t *testing.T) {
	out := execute(t, counterReducer+`
		const store = Redux.createStore(counter);
		store.dispatch({type: 'INCREMENT'});
		const Counter = () => React.createElement('h2', null, 'Count: ', store.getState());
		return React.createElement(Counter);
	`, ReactBinding{}, DocumentBinding{}, ReduxBinding{})

	assert.Equal(t, "<h2>Count: 1</h2>", renderedHTML(t, out))
}
