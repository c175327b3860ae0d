package recording

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyRunning is returned when Start is called on a session that is
// already recording. It signals a caller bug, not a recoverable condition.
var ErrAlreadyRunning = errors.New("recording is already running on this instance")

// ErrUnsupportedPlatform is returned when no capture mechanism exists for a platform.
var ErrUnsupportedPlatform = errors.New("screen recording is not supported on this platform")

// ErrNoRecorder is returned by Select when every candidate is unavailable.
var ErrNoRecorder = errors.New("no screen recorder available")

// Recorder is the contract every capture mechanism implements.
//
// Probe is side-effect free and safe for concurrent use. Start launches the
// capture and returns without waiting for it; Stop is a no-op when nothing is
// running and otherwise blocks until the artifact is at the destination.
// Callers serialize Start and Stop on a single recorder.
type Recorder interface {
	Name() string
	Probe() Availability
	Start(ctx context.Context, destination string) (*Task, error)
	Stop(ctx context.Context) error
}

// Select returns the first candidate whose probe reports Available.
func Select(candidates ...Recorder) (Recorder, error) {
	if len(candidates) == 0 {
		return nil, ErrNoRecorder
	}
	reasons := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		ok, reason := IsAvailable(candidate.Probe())
		if ok {
			return candidate, nil
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", candidate.Name(), reason))
	}
	return nil, fmt.Errorf("%w (%s)", ErrNoRecorder, strings.Join(reasons, "; "))
}
