package types

// TransformResult is either executable code or a transform diagnostic.
// Exactly one of the two is meaningful: Err != nil means TransformError.
type TransformResult struct {
	Code string
	Err  *ExecutionError
}

// Executable wraps code that is ready to run
func Executable(code string) TransformResult {
	return TransformResult{Code: code}
}

// TransformFailure wraps a lowering diagnostic
func TransformFailure(message string, line, column int) TransformResult {
	return TransformResult{Err: &ExecutionError{
		Phase:   PhaseTransform,
		Name:    "SyntaxError",
		Message: message,
		Line:    line,
		Column:  column,
	}}
}

// OK reports whether the result is executable
func (r TransformResult) OK() bool {
	return r.Err == nil
}
