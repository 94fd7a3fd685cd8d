package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrOpen       = errors.New("circuit breaker is open")
	ErrProbeLimit = errors.New("circuit breaker probe limit reached")
)

// State is the breaker position
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values take the defaults noted.
type Settings struct {
	// Threshold is the consecutive failures that open the circuit (5)
	Threshold uint32
	// Cooldown is how long the circuit stays open before probing (30s)
	Cooldown time.Duration
	// Probes is the successful half-open calls needed to close (1)
	Probes uint32
	// IsFailure decides whether an error counts against the circuit.
	// The default counts everything except context cancellation.
	IsFailure func(err error) bool
	// OnStateChange is called with the breaker unlocked
	OnStateChange func(name string, from, to State)
}

// Counts holds statistics for the current state
type Counts struct {
	Requests             uint32
	Successes            uint32
	Failures             uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker fails calls fast while a dependency keeps failing
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu         sync.Mutex
	state      State
	counts     Counts
	generation uint64
	openedAt   time.Time
	probing    uint32
}

// New creates a closed breaker
func New(name string, settings Settings) *Breaker {
	if settings.Threshold == 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Probes == 0 {
		settings.Probes = 1
	}
	if settings.IsFailure == nil {
		settings.IsFailure = countsAsFailure
	}
	return &Breaker{name: name, settings: settings, now: time.Now}
}

func countsAsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, moving Open to HalfOpen once the
// cooldown has passed
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current()
}

// Counts returns a copy of the counts for the current state
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs fn if the circuit admits it. Errors from fn are returned as is.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gen, err := b.admit()
	if err != nil {
		return err
	}

	failed := true
	defer func() {
		b.settle(gen, failed)
	}()

	err = fn(ctx)
	failed = err != nil && b.settings.IsFailure(err)
	return err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.current() {
	case StateOpen:
		return 0, ErrOpen
	case StateHalfOpen:
		if b.probing >= b.settings.Probes {
			return 0, ErrProbeLimit
		}
		b.probing++
	}
	b.counts.Requests++
	return b.generation, nil
}

// settle records a result. Results from an earlier generation are stale.
func (b *Breaker) settle(gen uint64, failed bool) {
	b.mu.Lock()
	state := b.current()
	if gen != b.generation {
		b.mu.Unlock()
		return
	}
	if state == StateHalfOpen {
		b.probing--
	}

	var from, to State
	changed := false
	if failed {
		b.counts.Failures++
		b.counts.ConsecutiveFailures++
		b.counts.ConsecutiveSuccesses = 0
		if state == StateHalfOpen || b.counts.ConsecutiveFailures >= b.settings.Threshold {
			from, to, changed = state, StateOpen, true
		}
	} else {
		b.counts.Successes++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.Probes {
			from, to, changed = state, StateClosed, true
		}
	}
	if changed {
		b.move(to)
	}
	b.mu.Unlock()

	if changed && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}

// current must be called with mu held
func (b *Breaker) current() State {
	if b.state == StateOpen && !b.now().Before(b.openedAt.Add(b.settings.Cooldown)) {
		b.move(StateHalfOpen)
	}
	return b.state
}

// move must be called with mu held
func (b *Breaker) move(to State) {
	b.state = to
	b.generation++
	b.counts = Counts{}
	b.probing = 0
	if to == StateOpen {
		b.openedAt = b.now()
	}
}
