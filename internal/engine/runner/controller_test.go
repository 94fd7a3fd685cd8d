package runner

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/engine/sink"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// spyExecutor counts invocations of the wrapped executor
type spyExecutor struct {
	next  sandbox.Executor
	calls atomic.Int32
}

func (s *spyExecutor) Execute(ctx context.Context, code string, bindings ...sandbox.Binding) *sandbox.Outcome {
	s.calls.Add(1)
	return s.next.Execute(ctx, code, bindings...)
}

// blockingExecutor holds the synchronous phase open until released
type blockingExecutor struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingExecutor) Execute(context.Context, string, ...sandbox.Binding) *sandbox.Outcome {
	close(b.entered)
	<-b.release
	return &sandbox.Outcome{Kind: sandbox.OutcomeValue, Display: "undefined"}
}

type countingRecorder struct {
	mu        sync.Mutex
	completed map[sandbox.OutcomeKind]int
	failed    map[types.Phase]int
	rejected  int
	deferred  int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		completed: make(map[sandbox.OutcomeKind]int),
		failed:    make(map[types.Phase]int),
	}
}

func (r *countingRecorder) RunCompleted(_ string, kind sandbox.OutcomeKind, _ time.Duration) {
	r.mu.Lock()
	r.completed[kind]++
	r.mu.Unlock()
}

func (r *countingRecorder) RunFailed(_ string, phase types.Phase) {
	r.mu.Lock()
	r.failed[phase]++
	r.mu.Unlock()
}

func (r *countingRecorder) RunRejected(string) {
	r.mu.Lock()
	r.rejected++
	r.mu.Unlock()
}

func (r *countingRecorder) DeferredFailed(string) {
	r.mu.Lock()
	r.deferred++
	r.mu.Unlock()
}

type harness struct {
	ctrl        *Controller
	sink        *sink.Sink
	target      *render.HTMLTarget
	executor    *spyExecutor
	recorder    *countingRecorder
	mu          sync.Mutex
	transitions []State
}

func (h *harness) states() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]State(nil), h.transitions...)
}

func newHarness(t *testing.T, profile Profile, configure ...func(*Options)) *harness {
	t.Helper()

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), 2)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	h := &harness{
		sink:     sink.New(sink.DefaultConfig(), nil),
		target:   render.NewHTMLTarget(),
		executor: &spyExecutor{next: pool},
		recorder: newCountingRecorder(),
	}

	opts := Options{
		Profile:  profile,
		Sink:     h.sink,
		Target:   h.target,
		Executor: h.executor,
		Logger:   zaptest.NewLogger(t),
		Recorder: h.recorder,
		OnTransition: func(_ id.RunID, _, to State) {
			h.mu.Lock()
			h.transitions = append(h.transitions, to)
			h.mu.Unlock()
		},
	}
	for _, fn := range configure {
		fn(&opts)
	}

	h.ctrl, err = New(opts)
	require.NoError(t, err)
	t.Cleanup(h.ctrl.Close)
	return h
}

func run(t *testing.T, h *harness, source string) *Report {
	t.Helper()
	report, err := h.ctrl.Run(context.Background(), source)
	require.NoError(t, err)
	return report
}

func TestConsoleLogScenario(t *testing.T) {
	h := newHarness(t, ScriptProfile)

	report := run(t, h, "console.log('hi')")

	entries := h.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.KindPlain, entries[0].Kind)
	assert.Equal(t, "hi", entries[0].Text)

	assert.Equal(t, StateSucceeded, report.State)
	assert.Equal(t, sandbox.OutcomeValue, report.Outcome.Kind)
	assert.True(t, report.Outcome.IsUndefined())
	assert.Equal(t, entries, report.Entries)
	assert.Equal(t, []State{StateTransforming, StateExecuting, StateSucceeded, StateIdle}, h.states())
	assert.Equal(t, StateIdle, h.ctrl.State())
}

func TestReturnValueScenario(t *testing.T) {
	h := newHarness(t, ScriptProfile)

	report := run(t, h, "return 2+2")

	assert.Equal(t, sandbox.OutcomeValue, report.Outcome.Kind)
	assert.Equal(t, int64(4), report.Outcome.Value)
	assert.Zero(t, h.sink.Len())
}

func TestThrowScenario(t *testing.T) {
	h := newHarness(t, ScriptProfile)

	report := run(t, h, "throw new Error('boom')")

	require.Equal(t, sandbox.OutcomeFailed, report.Outcome.Kind)
	assert.Equal(t, types.PhaseExecute, report.Outcome.Err.Phase)
	assert.Equal(t, "boom", report.Outcome.Err.Message)
	assert.Equal(t, StateFailed, report.State)

	entries := h.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.KindError, entries[0].Kind)
	assert.Contains(t, entries[0].Text, "boom")
	assert.Contains(t, entries[0].Text, "execute")
	assert.Equal(t, []State{StateTransforming, StateExecuting, StateFailed, StateIdle}, h.states())
}

func TestMalformedMarkupScenario(t *testing.T) {
	h := newHarness(t, ReactProfile)

	report := run(t, h, "return <div>")

	require.Equal(t, sandbox.OutcomeFailed, report.Outcome.Kind)
	assert.Equal(t, types.PhaseTransform, report.Outcome.Err.Phase)
	assert.Zero(t, h.executor.calls.Load())
	assert.Equal(t, []State{StateTransforming, StateFailed, StateIdle}, h.states())

	entries := h.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.KindError, entries[0].Kind)
	assert.Contains(t, entries[0].Text, "transform")
	assert.Contains(t, h.target.HTML(), "<strong>Error:</strong>")
}

func TestPartialOutputSurvivesFailure(t *testing.T) {
	h := newHarness(t, ScriptProfile)

	run(t, h, "console.log('before'); throw new Error('after')")

	entries := h.sink.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "before", entries[0].Text)
	assert.Equal(t, types.KindError, entries[1].Kind)
}

func TestBoundedSinkThroughRuns(t *testing.T) {
	h := newHarness(t, ScriptProfile)
	limit := h.sink.MaxEntries()

	run(t, h, "for (let i = 0; i < "+itoa(limit+5)+"; i++) console.log('line ' + i)")

	entries := h.sink.Entries()
	require.Len(t, entries, limit)
	assert.Equal(t, "line 5", entries[0].Text)
	assert.Equal(t, "line "+itoa(limit+4), entries[limit-1].Text)
}

func TestReactRendersToTarget(t *testing.T) {
	h := newHarness(t, ReactProfile)

	report := run(t, h, `
function MyComponent() {
	const [count] = React.useState(0);
	return <div className="demo"><h3>Count: {count}</h3></div>;
}
return <MyComponent />;`)

	require.Equal(t, sandbox.OutcomeRendered, report.Outcome.Kind, "unexpected error: %v", report.Outcome.Err)
	assert.Equal(t, `<div class="demo"><h3>Count: 0</h3></div>`, h.target.HTML())
	assert.Zero(t, h.sink.Len())
}

func TestReactExecuteFailureRendersPanel(t *testing.T) {
	h := newHarness(t, ReactProfile)

	run(t, h, "const Broken = () => { throw new Error('kaput') };\nreturn <Broken />;")

	assert.Contains(t, h.target.HTML(), "kaput")
	assert.Contains(t, h.target.HTML(), `class="error"`)
	assert.Equal(t, 1, h.sink.Len())
}

func TestReduxProfile(t *testing.T) {
	h := newHarness(t, ReduxProfile)

	report := run(t, h, `
const store = Redux.createStore((state = {count: 0}, action) =>
	action.type === 'INCREMENT' ? {count: state.count + 1} : state);
store.dispatch({type: 'INCREMENT'});
const Counter = () => <h2>Count: {store.getState().count}</h2>;
ReactDOM.render(<Counter />, document.getElementById('root'));`)

	require.Equal(t, sandbox.OutcomeRendered, report.Outcome.Kind, "unexpected error: %v", report.Outcome.Err)
	assert.Equal(t, "<h2>Count: 1</h2>", h.target.HTML())
}

func TestScriptProfileIgnoresTarget(t *testing.T) {
	h := newHarness(t, ScriptProfile)

	run(t, h, "throw new Error('no panel')")
	assert.Zero(t, h.target.Version())
}

func TestEchoResult(t *testing.T) {
	h := newHarness(t, ScriptProfile, func(o *Options) { o.EchoResult = true })

	run(t, h, "return {answer: 42}")
	run(t, h, "return undefined")

	entries := h.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.KindInfo, entries[0].Kind)
	assert.Equal(t, `// Return value: {"answer":42}`, entries[0].Text)
}

func TestHints(t *testing.T) {
	h := newHarness(t, ScriptProfile, func(o *Options) { o.Hints = true })

	report := run(t, h, "   \n ")
	assert.Equal(t, StateSucceeded, report.State)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, HintEmpty, report.Entries[0].Text)

	report = run(t, h, "console.log('x')")
	texts := make([]string, len(report.Entries))
	for i, e := range report.Entries {
		texts[i] = e.Text
	}
	assert.Equal(t, []string{HintRunning, "x", HintSuccess}, texts)

	report = run(t, h, "throw 1")
	assert.NotContains(t, report.Entries[len(report.Entries)-1].Text, HintSuccess)
}

func TestEmptySourceWithoutHints(t *testing.T) {
	h := newHarness(t, ScriptProfile)

	report := run(t, h, "")
	assert.Equal(t, StateSucceeded, report.State)
	assert.True(t, report.Outcome.IsUndefined())
	assert.Zero(t, h.sink.Len())
}

func TestBusy(t *testing.T) {
	h := newHarness(t, ScriptProfile)
	blocking := &blockingExecutor{entered: make(chan struct{}), release: make(chan struct{})}
	h.ctrl.opts.Executor = blocking

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := h.ctrl.Run(context.Background(), "1")
		assert.NoError(t, err)
	}()

	<-blocking.entered
	assert.Equal(t, StateExecuting, h.ctrl.State())
	_, err := h.ctrl.Run(context.Background(), "2")
	assert.ErrorIs(t, err, ErrBusy)

	close(blocking.release)
	<-done
	assert.Equal(t, StateIdle, h.ctrl.State())
	assert.Equal(t, 1, h.recorder.rejected)
}

func TestDeferredWork(t *testing.T) {
	h := newHarness(t, ScriptProfile)

	report := run(t, h, `
setTimeout(() => console.log('later'), 5);
setTimeout(() => { throw new Error('late boom') }, 10);
console.log('now');`)

	assert.Equal(t, 2, report.Pending)
	require.NoError(t, report.Wait(context.Background()))

	entries := h.sink.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "now", entries[0].Text)
	assert.Equal(t, "later", entries[1].Text)
	assert.Equal(t, types.KindError, entries[2].Kind)
	assert.Contains(t, entries[2].Text, "late boom")
	assert.Equal(t, 1, h.recorder.deferred)
	assert.Equal(t, StateIdle, h.ctrl.State())
}

func TestRunWithoutDeferredIsDone(t *testing.T) {
	h := newHarness(t, ScriptProfile)

	report := run(t, h, "return 1")
	select {
	case <-report.Done:
	default:
		t.Fatal("Done should be closed when nothing is pending")
	}
}

func TestCloseAbandonsDeferredWork(t *testing.T) {
	h := newHarness(t, ScriptProfile)

	report := run(t, h, "setTimeout(() => console.log('never'), 60000)")
	h.ctrl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, report.Wait(ctx))
	assert.Zero(t, h.sink.Len())
}

func TestRunDeterminism(t *testing.T) {
	h := newHarness(t, ScriptProfile)
	source := "return [3, 1, 2].sort().map(n => n * 10)"

	first := run(t, h, source)
	second := run(t, h, source)
	assert.Equal(t, first.Outcome.Value, second.Outcome.Value)
	assert.NotEqual(t, first.RunID, second.RunID)

	r := newHarness(t, ReactProfile)
	jsx := "return <ul>{['a', 'b'].map(s => <li key={s}>{s}</li>)}</ul>;"
	a := run(t, r, jsx)
	b := run(t, r, jsx)
	assert.Equal(t, a.Outcome.Tree.HTML(), b.Outcome.Tree.HTML())
}

func TestRecorder(t *testing.T) {
	h := newHarness(t, ReactProfile)

	run(t, h, "return 1")
	run(t, h, "throw new Error('x')")
	run(t, h, "return <p>")

	assert.Equal(t, 1, h.recorder.completed[sandbox.OutcomeValue])
	assert.Equal(t, 2, h.recorder.completed[sandbox.OutcomeFailed])
	assert.Equal(t, 1, h.recorder.failed[types.PhaseExecute])
	assert.Equal(t, 1, h.recorder.failed[types.PhaseTransform])
	assert.Equal(t, uint64(3), h.ctrl.Runs())
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Sink: sink.New(sink.DefaultConfig(), nil)})
	assert.Error(t, err)
}

func TestLookupProfile(t *testing.T) {
	for _, p := range Profiles() {
		got, err := LookupProfile(p.Name)
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)
	}

	p, err := LookupProfile("")
	require.NoError(t, err)
	assert.Equal(t, "script", p.Name)

	_, err = LookupProfile("vue")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, StateIdle.CanTransition(StateTransforming))
	assert.True(t, StateTransforming.CanTransition(StateFailed))
	assert.False(t, StateTransforming.CanTransition(StateSucceeded))
	assert.False(t, StateIdle.CanTransition(StateExecuting))
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateExecuting.Terminal())
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
