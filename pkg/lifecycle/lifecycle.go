package lifecycle

// State represents the state of a comms channel.
type State int

const (
	// StateIdle is a session that was created but not started.
	StateIdle State = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateOpen:
		return "Open"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// EventEmitter is called when the channel state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Manager manages the channel state machine and its background workers.
type Manager interface {
	// State returns the current state.
	State() State

	// CanStart returns true if the channel has never been opened.
	CanStart() bool

	// TransitionTo attempts to transition to a new state.
	// Returns ErrInvalidTransition if the transition is not allowed.
	TransitionTo(newState State, reason string) error

	// AddWorker increments the worker count.
	AddWorker()

	// WorkerDone decrements the worker count.
	WorkerDone()

	// Wait blocks until every worker called WorkerDone.
	Wait()
}
