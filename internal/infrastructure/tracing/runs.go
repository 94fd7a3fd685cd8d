package tracing

import (
	"context"
	"errors"
	"sync"
)

// Run state names that bracket a run
const (
	stateIdle   = "idle"
	stateFailed = "failed"
)

var errRunFailed = errors.New("run failed")

// RunSpans turns a run controller's state transitions into spans: one
// "run" span per run with a child span per phase
type RunSpans struct {
	tracer *Tracer
	tags   map[string]string

	mu   sync.Mutex
	runs map[string]*runTrace
}

type runTrace struct {
	root  *Span
	ctx   context.Context
	phase *Span
}

// RunSpans creates a transition recorder. tags are copied onto every run span.
func (t *Tracer) RunSpans(tags map[string]string) *RunSpans {
	return &RunSpans{
		tracer: t,
		tags:   tags,
		runs:   make(map[string]*runTrace),
	}
}

// Transition records that run moved from one state to another. Leaving
// idle opens the run span; returning to idle submits it.
func (r *RunSpans) Transition(run, from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.runs[run]
	if !ok {
		if from != stateIdle {
			return
		}
		root, ctx := r.tracer.StartSpan(context.Background(), "run")
		root.SetTag("run_id", run)
		for k, v := range r.tags {
			root.SetTag(k, v)
		}
		rt = &runTrace{root: root, ctx: ctx}
		r.runs[run] = rt
	}

	if rt.phase != nil {
		rt.phase.Finish()
		r.tracer.Submit(rt.phase)
		rt.phase = nil
	}

	if to == stateIdle {
		rt.root.SetTag("result", from)
		if from == stateFailed {
			rt.root.SetError(errRunFailed)
		}
		rt.root.Finish()
		r.tracer.Submit(rt.root)
		delete(r.runs, run)
		return
	}

	rt.phase, _ = r.tracer.StartSpan(rt.ctx, to)
}

// Open returns the number of runs still in flight
func (r *RunSpans) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
