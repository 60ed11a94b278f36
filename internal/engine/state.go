package engine

// State is the scheduler's position in its scan cycle.
type State int

const (
	StateIdle State = iota
	// StatePending means a debounce timer is running.
	StatePending
	// StateScanning means a scan is in flight.
	StateScanning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateScanning:
		return "scanning"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
