package types

import "fmt"

// Phase names the run step that failed
type Phase string

const (
	PhaseTransform Phase = "transform"
	PhaseExecute   Phase = "execute"
)

// ExecutionError describes why a run failed. It is never raised past the
// run controller; it is rendered as a log line or an error panel.
type ExecutionError struct {
	Phase   Phase  `json:"phase"`
	Name    string `json:"name,omitempty"` // JS error class, e.g. TypeError
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`   // 1-based, 0 if unknown
	Column  int    `json:"column,omitempty"` // 1-based, 0 if unknown
}

// NewExecutionError creates an error without position information
func NewExecutionError(phase Phase, name, message string) *ExecutionError {
	return &ExecutionError{Phase: phase, Name: name, Message: message}
}

// Error implements error
func (e *ExecutionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s: %s", e.Phase, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Phase, e.Message)
}

// Diagnostic renders the one-line message shown in the output panel
func (e *ExecutionError) Diagnostic() string {
	msg := e.Message
	if e.Name != "" {
		msg = e.Name + ": " + msg
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d, column %d)", msg, e.Line, e.Column)
	}
	return fmt.Sprintf("%s error: %s", e.Phase, msg)
}
