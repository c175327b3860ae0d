package recording

// State is the lifecycle state of a recording session: Stopped or Running.
type State interface {
	state()
}

// Stopped means no capture is in flight.
type Stopped struct{}

// Running describes an in-flight capture.
type Running struct {
	// Source is where the capture is written while running: a device path
	// or the path written by a local process.
	Source string
	// Destination is where the artifact ends up on the host.
	Destination string
	// Task is the detached capture operation.
	Task *Task
}

func (Stopped) state() {}
func (Running) state() {}

// Describe renders a state for logs and status output.
func Describe(s State) string {
	switch v := s.(type) {
	case Stopped:
		return "stopped"
	case Running:
		return "running: " + v.Source + " -> " + v.Destination
	default:
		return "unknown"
	}
}
