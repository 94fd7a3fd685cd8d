/*
Package sink provides the bounded, append-only console log that backs a
playground output panel.

# Overview

A Sink stores LogEntry values in arrival order, stamps each with a sequence
number and forwards it to an optional Surface (terminal, WebSocket hub, ...).

  - Bounded: at most MaxEntries entries are retained, oldest evicted first
  - Monotonic: sequence numbers never repeat for the lifetime of a Sink,
    Clear does not reset them
  - Banner: Clear re-seeds fixed header lines; banner lines are not entries
  - Headless: a nil Surface turns rendering into a no-op, storage still works

# Usage Example

	s := sink.New(sink.Config{MaxEntries: 100}, termsurface.New(os.Stdout))
	s.Append(types.LogEntry{Kind: types.KindInfo, Text: "ready"})
	s.Clear()
*/
package sink
