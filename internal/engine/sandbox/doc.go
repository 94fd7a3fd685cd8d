/*
Package sandbox executes snippet code inside isolated goja runtimes.

# Overview

A snippet is compiled as the body of a function whose parameters are the
names of the bindings supplied for the run:

	(function(console, React, ReactDOM){<snippet>
	})

The wrapper shares the snippet's first line, so reported line numbers match
the text the user wrote. The function is called exactly once. Bindings are
the only names the snippet receives from the host; the global scope holds
the language built-ins plus host timers, with require, process, module and
exports removed.

# Outcomes

Execute never returns an error and never panics. A run ends in one of:

  - Value: the returned value with its display and JSON forms
  - Rendered: a host tree produced by a binding's Renderer
  - Failed: an ExecutionError in the execute phase

Compile errors, thrown values of any type, interrupts and Go panics raised
by host functions all become Failed.

# Timers

setTimeout and setInterval only queue work. Callbacks run after the run has
returned, through the Outcome's Deferred, which keeps the runtime checked
out of its Pool until the queue drains.

# Limits

Config.Timeout arms goja's Interrupt for the synchronous call and for each
timer callback. It defaults to zero, which leaves runs unbounded.

Names in scope are restricted; what a snippet can reach through the
objects it was handed is not.
*/
package sandbox
