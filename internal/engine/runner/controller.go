package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/engine/console"
	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/engine/sink"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

var ErrBusy = errors.New("a run is already in progress")

// Narration written when hints are enabled
const (
	HintEmpty   = "// Please enter some JavaScript code to run"
	HintRunning = "// Running your code..."
	HintSuccess = "// Code executed successfully! ✅"
)

// Recorder receives run metrics
type Recorder interface {
	RunCompleted(profile string, outcome sandbox.OutcomeKind, duration time.Duration)
	RunFailed(profile string, phase types.Phase)
	RunRejected(profile string)
	DeferredFailed(profile string)
}

// TransitionFunc observes state changes
type TransitionFunc func(run id.RunID, from, to State)

// Options configures a Controller
type Options struct {
	Profile      Profile
	Sink         *sink.Sink
	Target       render.Target // UI profiles only, may be nil
	Executor     sandbox.Executor
	Logger       *zap.Logger
	Recorder     Recorder
	EchoResult   bool // log non-undefined return values
	Hints        bool // narrate runs the way the demo playground does
	OnTransition TransitionFunc
}

// Report describes one finished run
type Report struct {
	RunID    id.RunID         `json:"run_id"`
	Profile  string           `json:"profile"`
	State    State            `json:"state"`
	Outcome  *sandbox.Outcome `json:"outcome"`
	Entries  []types.LogEntry `json:"entries"`
	Pending  int              `json:"pending"`
	Duration time.Duration    `json:"duration"`

	// Done closes once the run's deferred work has settled
	Done <-chan struct{} `json:"-"`
}

// Wait blocks until deferred work settles or ctx ends
func (r *Report) Wait(ctx context.Context) error {
	select {
	case <-r.Done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Controller drives runs for one session: transform, execute, route the
// outcome to the sink and render target
type Controller struct {
	opts   Options
	logger *zap.Logger

	running sync.Mutex
	mu      sync.RWMutex
	state   State
	runs    atomic.Uint64

	ctx      context.Context
	cancel   context.CancelFunc
	deferred sync.WaitGroup
}

// New creates a controller
func New(opts Options) (*Controller, error) {
	if opts.Sink == nil {
		return nil, errors.New("runner: sink is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("runner: executor is required")
	}
	if opts.Profile.Transformer == nil {
		opts.Profile = ScriptProfile
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		opts:   opts,
		logger: opts.Logger.With(zap.String("profile", opts.Profile.Name)),
		state:  StateIdle,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Profile returns the controller's profile
func (c *Controller) Profile() Profile { return c.opts.Profile }

// Sink returns the controller's output sink
func (c *Controller) Sink() *sink.Sink { return c.opts.Sink }

// State returns the current state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Runs counts runs started by this controller
func (c *Controller) Runs() uint64 {
	return c.runs.Load()
}

// Run transforms and executes source. Snippet failures are reported in the
// Report, never as an error; the only error is ErrBusy.
func (c *Controller) Run(ctx context.Context, source string) (*Report, error) {
	if !c.running.TryLock() {
		if c.opts.Recorder != nil {
			c.opts.Recorder.RunRejected(c.opts.Profile.Name)
		}
		return nil, ErrBusy
	}
	defer c.running.Unlock()

	c.runs.Add(1)
	runID := id.NewRunID()
	start := time.Now()
	log := c.logger.With(zap.String("run_id", runID.String()))
	cons := console.New(c.opts.Sink)

	narrate := c.opts.Hints && strings.TrimSpace(source) != ""
	if narrate {
		cons.Info(HintRunning)
	} else if c.opts.Hints {
		cons.Info(HintEmpty)
	}

	c.transition(runID, StateTransforming)
	result := c.opts.Profile.Transformer.Transform(source)

	var out *sandbox.Outcome
	if !result.OK() {
		out = sandbox.Failed(result.Err)
	} else {
		c.transition(runID, StateExecuting)
		out = c.opts.Executor.Execute(ctx, result.Code, c.opts.Profile.Bindings(cons)...)
	}

	final := StateSucceeded
	if out.Kind == sandbox.OutcomeFailed {
		final = StateFailed
	}
	c.route(cons, out)
	if narrate && final == StateSucceeded {
		cons.Info(HintSuccess)
	}
	c.transition(runID, final)

	report := &Report{
		RunID:    runID,
		Profile:  c.opts.Profile.Name,
		State:    final,
		Outcome:  out,
		Entries:  cons.Emitted(),
		Pending:  out.Pending(),
		Duration: time.Since(start),
	}
	report.Done = c.startDeferred(out, log)

	c.record(out, report.Duration)
	log.Debug("Run finished",
		zap.String("state", string(final)),
		zap.String("outcome", string(out.Kind)),
		zap.Int("entries", len(report.Entries)),
		zap.Int("pending", report.Pending),
		zap.Duration("duration", report.Duration))

	c.transition(runID, StateIdle)
	return report, nil
}

// route delivers an outcome to the sink and render target
func (c *Controller) route(cons *console.Console, out *sandbox.Outcome) {
	target := c.opts.Target
	if !c.opts.Profile.UI {
		target = nil
	}

	switch out.Kind {
	case sandbox.OutcomeFailed:
		cons.Error(out.Err.Diagnostic())
		if target != nil {
			target.Render(render.ErrorPanel(out.Err))
		}

	case sandbox.OutcomeRendered:
		if target != nil {
			target.Render(out.Tree)
		}

	case sandbox.OutcomeValue:
		if c.opts.EchoResult && !out.IsUndefined() {
			shown := out.JSON
			if shown == "" {
				shown = out.Display
			}
			cons.Info("// Return value: " + shown)
		}
		if target != nil {
			if out.IsUndefined() {
				target.Render(nil)
			} else {
				target.Render(render.TextNode(out.Display))
			}
		}
	}
}

// startDeferred drains the run's timers on their own goroutine. Later log
// output reaches the sink through the console bound during the run.
func (c *Controller) startDeferred(out *sandbox.Outcome, log *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if out.Deferred == nil {
		close(done)
		return done
	}

	c.deferred.Add(1)
	go func() {
		defer c.deferred.Done()
		defer close(done)

		out.Deferred.Run(c.ctx, func(err *types.ExecutionError) {
			c.opts.Sink.Append(types.LogEntry{Kind: types.KindError, Text: err.Diagnostic()})
			if c.opts.Recorder != nil {
				c.opts.Recorder.DeferredFailed(c.opts.Profile.Name)
			}
			log.Debug("Deferred callback failed", zap.Error(err))
		})
	}()
	return done
}

func (c *Controller) record(out *sandbox.Outcome, d time.Duration) {
	if c.opts.Recorder == nil {
		return
	}
	c.opts.Recorder.RunCompleted(c.opts.Profile.Name, out.Kind, d)
	if out.Kind == sandbox.OutcomeFailed {
		c.opts.Recorder.RunFailed(c.opts.Profile.Name, out.Err.Phase)
	}
}

func (c *Controller) transition(run id.RunID, to State) {
	c.mu.Lock()
	from := c.state
	if !from.CanTransition(to) {
		c.mu.Unlock()
		c.logger.DPanic("Invalid run state transition",
			zap.String("run_id", run.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)))
		return
	}
	c.state = to
	c.mu.Unlock()

	c.logger.Debug("Run state changed",
		zap.String("run_id", run.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	if c.opts.OnTransition != nil {
		c.opts.OnTransition(run, from, to)
	}
}

// Close abandons pending deferred work and waits for it to stop
func (c *Controller) Close() {
	c.cancel()
	c.deferred.Wait()
}
