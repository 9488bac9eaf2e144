package process

// State represents the lifecycle state of a spawned process.
type State int

const (
	// StateStarting indicates the process is being spawned.
	StateStarting State = iota

	// StateRunning indicates the process is alive and has not signalled readiness.
	StateRunning

	// StateReady indicates the readiness pattern was observed.
	StateReady

	// StateExited indicates the process has exited and its output is drained.
	StateExited
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateReady:
		return "ready"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}
