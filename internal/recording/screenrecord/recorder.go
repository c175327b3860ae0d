package screenrecord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"screenrec/internal/logging"
	"screenrec/internal/recording"
)

const (
	// Name identifies this mechanism in configuration and logs.
	Name = "screenrecord"
	// DevicePath is the well-known capture file location on the device.
	DevicePath = "/sdcard/maestro-screenrecording.mp4"
	// DefaultBitRate is the bit rate passed to screenrecord.
	DefaultBitRate = 100000

	interruptCommand = "killall -INT screenrecord"
)

// ErrCaptureFailed wraps transport failures of the device capture command.
var ErrCaptureFailed = errors.New("failed to capture screen recording on the device. " +
	"Note that some Android emulators do not support screen recording. " +
	"Try using a different Android emulator (eg. Pixel 5 / API 30) or provide scrcpy instead")

// Driver is the device-control collaborator used to run the capture.
type Driver interface {
	Shell(ctx context.Context, command string) error
	PullFile(ctx context.Context, remotePath, localPath string) error
}

// Option configures the recorder.
type Option func(*Recorder)

// WithBitRate overrides the capture bit rate.
func WithBitRate(bitRate int) Option {
	return func(r *Recorder) {
		if bitRate > 0 {
			r.bitRate = bitRate
		}
	}
}

// WithDevicePath overrides the on-device capture file.
func WithDevicePath(path string) Option {
	return func(r *Recorder) {
		if path != "" {
			r.devicePath = path
		}
	}
}

// WithTimeLimit passes --time-limit to screenrecord. Zero keeps the device default.
func WithTimeLimit(seconds int) Option {
	return func(r *Recorder) {
		if seconds > 0 {
			r.timeLimit = seconds
		}
	}
}

// WithLogger injects a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Recorder is a recording session backed by the screenrecord shell command.
type Recorder struct {
	driver     Driver
	bitRate    int
	timeLimit  int
	devicePath string
	logger     *slog.Logger

	mu    sync.Mutex
	state recording.State
}

// New constructs a recorder that issues commands through driver.
func New(driver Driver, opts ...Option) (*Recorder, error) {
	if driver == nil {
		return nil, errors.New("screenrecord: device driver required")
	}
	r := &Recorder{
		driver:     driver,
		bitRate:    DefaultBitRate,
		devicePath: DevicePath,
		logger:     logging.NewNop(),
		state:      recording.Stopped{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, Name)
	return r, nil
}

// Name implements recording.Recorder.
func (r *Recorder) Name() string { return Name }

// Probe always reports Available: whether the device can actually record is
// only discovered when the command runs.
func (r *Recorder) Probe() recording.Availability {
	return recording.Available{}
}

// State returns the current session state.
func (r *Recorder) State() recording.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start launches screenrecord on the device and returns without waiting for it.
func (r *Recorder) Start(ctx context.Context, destination string) (*recording.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state.(type) {
	case recording.Running:
		return nil, recording.ErrAlreadyRunning
	case recording.Stopped:
	}
	if destination == "" {
		return nil, errors.New("screenrecord: destination path required")
	}

	command := r.captureCommand()
	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("starting device screen recording",
		logging.String("command", command),
		logging.String("device_path", r.devicePath),
		logging.String("destination", destination),
	)

	task := recording.Go(ctx, func(taskCtx context.Context) error {
		if err := r.driver.Shell(taskCtx, command); err != nil {
			return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
		}
		return nil
	})
	r.state = recording.Running{Source: r.devicePath, Destination: destination, Task: task}
	return task, nil
}

// Stop interrupts the device command, waits for it to exit, then pulls the
// capture to the destination. The session is Stopped afterwards whatever the
// outcome.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var running recording.Running
	switch s := r.state.(type) {
	case recording.Stopped:
		return nil
	case recording.Running:
		running = s
	}
	defer func() { r.state = recording.Stopped{} }()

	logger := logging.WithContext(ctx, r.logger)

	// screenrecord may already have exited on its own, e.g. at its time limit.
	if !running.Task.Finished() {
		if err := r.driver.Shell(ctx, interruptCommand); err != nil {
			running.Task.Cancel()
			<-running.Task.Done()
			return fmt.Errorf("interrupt screenrecord: %w", err)
		}
	}

	if err := running.Task.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			running.Task.Cancel()
			<-running.Task.Done()
		}
		return err
	}

	if err := r.driver.PullFile(ctx, running.Source, running.Destination); err != nil {
		return fmt.Errorf("pull screen recording %s: %w", running.Source, err)
	}
	logger.Debug("device screen recording saved",
		logging.String("device_path", running.Source),
		logging.String("destination", running.Destination),
	)
	return nil
}

func (r *Recorder) captureCommand() string {
	command := "screenrecord --bit-rate '" + strconv.Itoa(r.bitRate) + "'"
	if r.timeLimit > 0 {
		command += " --time-limit " + strconv.Itoa(r.timeLimit)
	}
	return command + " " + r.devicePath
}
