// Package types provides shared data structures for the playground backend.
//
// This package defines the value types that flow between the engine
// components and the outer surfaces (HTTP, WebSocket, CLI).
//
// Core Types:
//   - LogEntry: One captured console line with its kind and sequence
//   - ExecutionError: Phase-tagged failure of a run
//   - TransformResult: Executable code or a transform diagnostic
//   - Snippet: A canned catalog entry
//   - SessionInfo: Public view of a playground session
//
// Request Types:
//   - RunRequest: Submit source or a snippet id for one run
//   - SessionRequest: Create a session with a profile
//   - WSMessage: WebSocket event envelope
//
// Example Usage:
//
//	entry := types.LogEntry{Kind: types.KindWarning, Text: "careful"}
//	err := types.NewExecutionError(types.PhaseExecute, "Error", "boom")
//	fmt.Println(err.Diagnostic()) // execute error: Error: boom
package types
