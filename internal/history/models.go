package history

import "time"

// Status is the lifecycle state of a recorded session.
type Status string

const (
	StatusRecording   Status = "recording"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Entry is one recording session.
type Entry struct {
	ID           string
	Device       string
	Platform     string
	Mechanism    string
	Destination  string
	Status       Status
	StartedAt    time.Time
	FinishedAt   time.Time
	SizeBytes    int64
	ErrorMessage string
}

// Duration returns how long the session ran, or zero while it is still recording.
func (e Entry) Duration() time.Duration {
	if e.FinishedAt.IsZero() || e.StartedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Finished reports whether the session reached a terminal status.
func (e Entry) Finished() bool {
	return e.Status != StatusRecording
}

// BeginParams describes a session about to start.
type BeginParams struct {
	Device      string
	Platform    string
	Mechanism   string
	Destination string
}

// Outcome describes how a session ended.
type Outcome struct {
	SizeBytes int64
	Err       error
}
