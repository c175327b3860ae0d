package scrcpy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"screenrec/internal/logging"
	"screenrec/internal/recording"
)

const (
	// Name identifies this mechanism in configuration and logs.
	Name = "scrcpy"
	// OverrideEnv names the variable holding an explicit scrcpy path.
	OverrideEnv = "MAESTRO_SCRCPY"

	serialEnv    = "ANDROID_SERIAL"
	readyMarker  = "Recording started to mp4 file"
	readyTimeout = 5 * time.Second
)

var (
	// ErrBinaryUnavailable is returned by Start when scrcpy cannot be located.
	ErrBinaryUnavailable = errors.New("scrcpy binary unavailable")
	// ErrUnexpectedExit is the task failure when scrcpy exits without a stop request.
	ErrUnexpectedExit = errors.New("scrcpy exited unexpectedly")
)

// Locator resolves the scrcpy executable.
type Locator interface {
	Locate() (string, error)
}

// Option configures the recorder.
type Option func(*Recorder)

// WithStdout sets where scrcpy's standard output goes. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(r *Recorder) {
		if w != nil {
			r.stdout = w
		}
	}
}

// WithStderr sets where scrcpy's diagnostic lines are forwarded. Defaults to os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(r *Recorder) {
		if w != nil {
			r.stderr = w
		}
	}
}

// WithSerial targets a specific device. scrcpy receives it through
// ANDROID_SERIAL so the command line stays fixed.
func WithSerial(serial string) Option {
	return func(r *Recorder) {
		r.serial = strings.TrimSpace(serial)
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

// Recorder is a recording session backed by a supervised scrcpy process.
type Recorder struct {
	locator Locator
	serial  string
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger

	mu      sync.Mutex
	state   recording.State
	session *session
}

// session tracks one scrcpy process.
type session struct {
	cmd *exec.Cmd

	stop     chan struct{}
	stopOnce sync.Once

	ready     chan struct{}
	readyOnce sync.Once
	scanErr   chan error
}

func (s *session) requestStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *session) stopRequested() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *session) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *session) isReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// New constructs a recorder that resolves scrcpy through locator.
func New(locator Locator, opts ...Option) (*Recorder, error) {
	if locator == nil {
		return nil, errors.New("scrcpy: locator required")
	}
	r := &Recorder{
		locator: locator,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  logging.NewNop(),
		state:   recording.Stopped{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, Name)
	if r.serial != "" {
		r.logger = r.logger.With(logging.String(logging.FieldDevice, r.serial))
	}
	return r, nil
}

// Name implements recording.Recorder.
func (r *Recorder) Name() string { return Name }

// Probe reports Available when the scrcpy binary can be located.
func (r *Recorder) Probe() recording.Availability {
	if _, err := r.locator.Locate(); err != nil {
		return recording.Unavailable{Reason: err.Error()}
	}
	return recording.Available{}
}

// Binary returns the path scrcpy currently resolves to.
func (r *Recorder) Binary() (string, error) {
	return r.locator.Locate()
}

// State returns the current session state.
func (r *Recorder) State() recording.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start launches scrcpy recording to destination and waits up to five seconds
// for it to report that recording began.
func (r *Recorder) Start(ctx context.Context, destination string) (*recording.Task, error) {
	r.mu.Lock()
	if _, ok := r.state.(recording.Running); ok {
		r.mu.Unlock()
		return nil, recording.ErrAlreadyRunning
	}
	s, task, target, err := r.launch(ctx, destination)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.state = recording.Running{Source: target, Destination: target, Task: task}
	r.session = s
	r.mu.Unlock()

	logger := logging.WithContext(ctx, r.logger)
	timer := time.NewTimer(readyTimeout)
	defer timer.Stop()

	select {
	case <-s.ready:
		logger.Debug("scrcpy recording started", logging.String("destination", target))
		return task, nil
	case scanErr := <-s.scanErr:
		s.requestStop()
		<-task.Done()
		r.finish(s)
		return nil, fmt.Errorf("read scrcpy output: %w", scanErr)
	case <-timer.C:
		logging.WarnWithContext(logger, "scrcpy did not confirm recording start", "recording_start_unconfirmed",
			logging.Duration("waited", readyTimeout),
			logging.String(logging.FieldErrorHint, "check scrcpy output above; the recording may be empty"),
		)
		return task, nil
	case <-task.Done():
		if s.stopRequested() || s.isReady() {
			return task, nil
		}
		r.finish(s)
		return nil, fmt.Errorf("start scrcpy: %w", task.Err())
	}
}

func (r *Recorder) launch(ctx context.Context, destination string) (*session, *recording.Task, string, error) {
	if strings.TrimSpace(destination) == "" {
		return nil, nil, "", errors.New("scrcpy: destination path required")
	}
	binary, err := r.locator.Locate()
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: %w", ErrBinaryUnavailable, err)
	}
	target, err := filepath.Abs(destination)
	if err != nil {
		return nil, nil, "", fmt.Errorf("resolve destination: %w", err)
	}

	stderrRead, stderrWrite, err := os.Pipe()
	if err != nil {
		return nil, nil, "", fmt.Errorf("create stderr pipe: %w", err)
	}
	cmd := exec.Command(binary, "--no-playback", "--record="+target, "--record-format=mp4") //nolint:gosec
	cmd.Stdout = r.stdout
	cmd.Stderr = stderrWrite
	if r.serial != "" {
		cmd.Env = append(os.Environ(), serialEnv+"="+r.serial)
	}
	if err := cmd.Start(); err != nil {
		_ = stderrRead.Close()
		_ = stderrWrite.Close()
		return nil, nil, "", fmt.Errorf("launch scrcpy: %w", err)
	}
	// The child holds its own copy of the write end.
	_ = stderrWrite.Close()

	r.logger.Debug("scrcpy launched",
		logging.String("binary", binary),
		logging.Int("pid", cmd.Process.Pid),
		logging.String("destination", target),
	)

	s := &session{
		cmd:     cmd,
		stop:    make(chan struct{}),
		ready:   make(chan struct{}),
		scanErr: make(chan error, 1),
	}
	go r.forwardStderr(s, stderrRead)
	task := recording.Go(ctx, func(taskCtx context.Context) error {
		return r.supervise(taskCtx, s)
	})
	return s, task, target, nil
}

// forwardStderr copies scrcpy's diagnostic lines to the configured writer and
// signals readiness when the marker line appears.
func (r *Recorder) forwardStderr(s *session, pipe *os.File) {
	defer pipe.Close()
	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		line := scanner.Text()
		_, _ = fmt.Fprintln(r.stderr, line)
		if strings.Contains(line, readyMarker) {
			s.markReady()
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		s.scanErr <- err
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(r.stderr, pipe)
	}
}

// supervise waits for either process exit or a stop request. A stop sends
// SIGTERM and waits for the process; cancelling ctx kills it.
func (r *Recorder) supervise(ctx context.Context, s *session) error {
	exited := make(chan error, 1)
	go func() { exited <- s.cmd.Wait() }()

	select {
	case err := <-exited:
		if s.stopRequested() {
			return nil
		}
		logging.WarnWithContext(r.logger, "scrcpy exited unexpectedly", "recording_process_exited",
			logging.Error(err),
			logging.String(logging.FieldImpact, "recording ended early"),
			logging.String(logging.FieldErrorHint, "check scrcpy output and device connection"),
		)
		return fmt.Errorf("%w: %s", ErrUnexpectedExit, exitDescription(err))
	case <-s.stop:
	case <-ctx.Done():
		_ = s.cmd.Process.Kill()
		<-exited
		return ctx.Err()
	}

	if err := s.cmd.Process.Signal(unix.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		r.logger.Debug("scrcpy terminate signal failed", logging.Error(err))
	}
	select {
	case <-exited:
		return nil
	case <-ctx.Done():
		_ = s.cmd.Process.Kill()
		<-exited
		return ctx.Err()
	}
}

// Stop requests termination and waits for scrcpy to exit. If ctx ends first
// the process is killed. The session is Stopped afterwards.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	running, ok := r.state.(recording.Running)
	s := r.session
	r.mu.Unlock()
	if !ok || s == nil {
		return nil
	}
	defer r.finish(s)

	s.requestStop()
	err := running.Task.Wait(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		running.Task.Cancel()
		<-running.Task.Done()
		return err
	}
	return err
}

// finish resets the state if s is still the active session.
func (r *Recorder) finish(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == s {
		r.session = nil
		r.state = recording.Stopped{}
	}
}

func exitDescription(err error) string {
	if err == nil {
		return "exit status 0"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.String()
	}
	return err.Error()
}
