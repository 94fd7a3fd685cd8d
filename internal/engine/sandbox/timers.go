package sandbox

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

type timer struct {
	id       int64
	seq      uint64
	due      time.Time
	interval time.Duration
	repeat   bool
	ticks    int
	fn       goja.Callable
	args     []goja.Value
}

// timerQueue holds the timers a run scheduled. Callbacks only execute once
// the run has returned.
type timerQueue struct {
	mu      sync.Mutex
	nextID  int64
	seq     uint64
	created int
	pending map[int64]*timer
}

func newTimerQueue() *timerQueue {
	return &timerQueue{pending: make(map[int64]*timer)}
}

func (q *timerQueue) add(t *timer, limit int) (int64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if limit > 0 && q.created >= limit {
		return 0, false
	}
	q.created++
	q.nextID++
	q.seq++
	t.id = q.nextID
	t.seq = q.seq
	q.pending[t.id] = t
	return t.id, true
}

func (q *timerQueue) remove(id int64) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}

func (q *timerQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// next returns the earliest due timer, ties broken by creation order
func (q *timerQueue) next() *timer {
	q.mu.Lock()
	defer q.mu.Unlock()

	all := make([]*timer, 0, len(q.pending))
	for _, t := range q.pending {
		all = append(all, t)
	}
	if len(all) == 0 {
		return nil
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].due.Equal(all[j].due) {
			return all[i].seq < all[j].seq
		}
		return all[i].due.Before(all[j].due)
	})
	return all[0]
}

// settle reschedules or drops t after its callback ran
func (q *timerQueue) settle(t *timer, maxTicks int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[t.id]; !ok {
		return
	}
	t.ticks++
	if !t.repeat || (maxTicks > 0 && t.ticks >= maxTicks) {
		delete(q.pending, t.id)
		return
	}
	q.seq++
	t.seq = q.seq
	t.due = t.due.Add(t.interval)
}

func (r *Runtime) installTimers() {
	vm := r.vm
	schedule := func(call goja.FunctionCall, repeat bool) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("callback must be a function"))
		}
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		if delay < 0 {
			delay = 0
		}
		if repeat && delay < r.config.MinInterval {
			delay = r.config.MinInterval
		}
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = append(args, call.Arguments[2:]...)
		}

		id, ok := r.timers.add(&timer{
			due:      time.Now().Add(delay),
			interval: delay,
			repeat:   repeat,
			fn:       fn,
			args:     args,
		}, r.config.MaxTimers)
		if !ok {
			panic(vm.NewGoError(ErrTooManyTimers))
		}
		return vm.ToValue(id)
	}
	cancel := func(call goja.FunctionCall) goja.Value {
		r.timers.remove(call.Argument(0).ToInteger())
		return goja.Undefined()
	}

	vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value { return schedule(call, false) })
	vm.Set("setInterval", func(call goja.FunctionCall) goja.Value { return schedule(call, true) })
	vm.Set("clearTimeout", cancel)
	vm.Set("clearInterval", cancel)
}

// Deferred drains the timers of one finished run. It owns the runtime until
// Run returns.
type Deferred struct {
	rt      *Runtime
	release func()
	once    sync.Once
}

// Pending reports timers still queued
func (d *Deferred) Pending() int {
	return d.rt.timers.len()
}

// Run fires timers in due order until none remain or ctx is done. Callback
// failures are passed to report; they never stop the queue.
func (d *Deferred) Run(ctx context.Context, report func(*types.ExecutionError)) {
	defer d.done()

	for {
		t := d.rt.timers.next()
		if t == nil {
			return
		}

		if wait := time.Until(t.due); wait > 0 {
			tm := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				tm.Stop()
				return
			case <-tm.C:
			}
		} else if ctx.Err() != nil {
			return
		}

		err := d.rt.fire(ctx, t)
		if err != nil && report != nil {
			report(err)
		}
		d.rt.timers.settle(t, d.rt.config.MaxIntervalTicks)
	}
}

// Discard drops every pending timer and releases the runtime
func (d *Deferred) Discard() {
	d.done()
}

func (d *Deferred) done() {
	d.once.Do(func() {
		if d.release != nil {
			d.release()
		}
	})
}
