package component

// State is a step of a single component update.
type State string

// Update states. Rejected, Skipped, Done and Failed are terminal.
const (
	StateUnvalidated State = "unvalidated"
	StateRejected    State = "rejected"
	StateValidated   State = "validated"
	StateSkipped     State = "skipped"
	StateExecuting   State = "executing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	switch s {
	case StateRejected, StateSkipped, StateDone, StateFailed:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether the state is a successful terminal state.
func (s State) IsSuccess() bool {
	return s == StateSkipped || s == StateDone
}
