// Package console provides the capture console bound into executed snippets.
//
// Every emission becomes one LogEntry forwarded to a sink instead of touching
// host logging. Formatting never fails: arguments that cannot be stringified
// fall back to a best-effort representation, so a logging call can never be
// mistaken for a failure of the snippet itself.
package console

import (
	"fmt"
	"strings"
	"sync"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Appender accepts entries, typically a *sink.Sink
type Appender interface {
	Append(entry types.LogEntry) types.LogEntry
}

// Console is a per-run stand-in for the ambient logging channel
type Console struct {
	mu      sync.Mutex
	out     Appender
	buffer  []types.LogEntry
	emitted []types.LogEntry
}

// New creates a console writing to out. A nil out buffers entries until
// Attach is called.
func New(out Appender) *Console {
	return &Console{out: out}
}

// Attach binds the console to out and flushes buffered entries in order
func (c *Console) Attach(out Appender) {
	c.mu.Lock()
	c.out = out
	pending := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	for _, e := range pending {
		c.forward(out, e)
	}
}

// Buffered returns entries waiting for a sink
func (c *Console) Buffered() []types.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.LogEntry(nil), c.buffer...)
}

// Emitted returns the entries this console has forwarded, as stamped by the sink
func (c *Console) Emitted() []types.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.LogEntry(nil), c.emitted...)
}

// Log emits a plain entry
func (c *Console) Log(args ...any) { c.Emit(types.KindPlain, join(args)) }

// Info emits an info entry
func (c *Console) Info(args ...any) { c.Emit(types.KindInfo, join(args)) }

// Warn emits a warning entry
func (c *Console) Warn(args ...any) { c.Emit(types.KindWarning, join(args)) }

// Error emits an error entry
func (c *Console) Error(args ...any) { c.Emit(types.KindError, join(args)) }

// Emit forwards one entry of the given kind
func (c *Console) Emit(kind types.Kind, text string) {
	entry := types.LogEntry{Kind: kind, Text: text}

	c.mu.Lock()
	out := c.out
	if out == nil {
		c.buffer = append(c.buffer, entry)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.forward(out, entry)
}

func (c *Console) forward(out Appender, entry types.LogEntry) {
	stamped := out.Append(entry)
	c.mu.Lock()
	c.emitted = append(c.emitted, stamped)
	c.mu.Unlock()
}

// join formats Go arguments the way console.log joins its arguments
func join(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatGo(arg)
	}
	return strings.Join(parts, " ")
}

func formatGo(arg any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("[unprintable %T]", arg)
		}
	}()
	return fmt.Sprint(arg)
}
