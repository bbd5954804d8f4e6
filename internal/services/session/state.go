package session

// State is the lifecycle state of a Session on this device.
type State int

const (
	Uninitialized State = iota
	Joining
	Active
	Terminating
	Terminated
	Invalid
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Joining:
		return "joining"
	case Active:
		return "active"
	case Terminating:
		return "terminating"
	case Terminated:
		return "terminated"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}
