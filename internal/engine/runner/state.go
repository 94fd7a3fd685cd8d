package runner

// State is a run controller's lifecycle position
type State string

const (
	StateIdle         State = "idle"
	StateTransforming State = "transforming"
	StateExecuting    State = "executing"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

var transitions = map[State][]State{
	StateIdle:         {StateTransforming},
	StateTransforming: {StateExecuting, StateFailed},
	StateExecuting:    {StateSucceeded, StateFailed},
	StateSucceeded:    {StateIdle},
	StateFailed:       {StateIdle},
}

// CanTransition reports whether to directly follows s
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends a run
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
