package domain

// State is the lifecycle position of an RTE session.
// Transitions only move forward: NotInitialized -> Running -> Terminated.
type State int

const (
	StateNotInitialized State = iota // Initial state, before Initialize("")
	StateRunning                     // Communication session established
	StateTerminated                  // Absorbing state, after Terminate("")
)

func (s State) String() string {
	switch s {
	case StateNotInitialized:
		return "not_initialized"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// CanTransitionTo reports whether moving from s to next respects the forward-only lifecycle.
func (s State) CanTransitionTo(next State) bool {
	return next == s+1 && next <= StateTerminated
}
