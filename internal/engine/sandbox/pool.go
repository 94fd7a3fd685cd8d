package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

// DefaultAcquireTimeout bounds how long Execute waits for a free runtime
const DefaultAcquireTimeout = 5 * time.Second

// Pool manages a pool of reusable sandboxes
type Pool struct {
	config    Config
	sandboxes chan *Runtime
	size      int
	mu        sync.RWMutex
	closed    bool
}

// NewPool creates a sandbox pool
func NewPool(config Config, size int) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config:    config,
		sandboxes: make(chan *Runtime, size),
		size:      size,
	}

	// Pre-create sandboxes
	for i := 0; i < size; i++ {
		sandbox, err := New(config)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.sandboxes <- sandbox
	}

	return pool, nil
}

// Acquire gets a sandbox from pool with timeout
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	p.mu.RUnlock()

	timer := time.NewTimer(DefaultAcquireTimeout)
	defer timer.Stop()

	select {
	case sandbox, ok := <-p.sandboxes:
		if !ok {
			return nil, ErrPoolClosed
		}
		return sandbox, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Release resets a sandbox and returns it to the pool
func (p *Pool) Release(sandbox *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return sandbox.Close()
	}

	// Reset sandbox state
	if err := sandbox.Reset(); err != nil {
		sandbox.Close()
		// Create new sandbox
		if newSandbox, err := New(p.config); err == nil {
			p.sandboxes <- newSandbox
		}
		return err
	}

	select {
	case p.sandboxes <- sandbox:
		return nil
	default:
		// Pool full, close sandbox
		return sandbox.Close()
	}
}

// Execute runs code on a pooled runtime. When the run leaves timers behind
// the runtime stays checked out until its Deferred finishes.
func (p *Pool) Execute(ctx context.Context, code string, bindings ...Binding) *Outcome {
	sandbox, err := p.Acquire(ctx)
	if err != nil {
		return Failed(types.NewExecutionError(types.PhaseExecute, "", "sandbox unavailable: "+err.Error()))
	}

	out := sandbox.Execute(ctx, code, bindings...)
	if out.Deferred == nil {
		p.Release(sandbox)
		return out
	}

	out.Deferred.release = func() { p.Release(sandbox) }
	return out
}

// Close closes pool and all sandboxes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.sandboxes)

	// Close all sandboxes
	for sandbox := range p.sandboxes {
		sandbox.Close()
	}

	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.size,
		"available": len(p.sandboxes),
		"in_use":    p.size - len(p.sandboxes),
		"closed":    p.closed,
	}
}
