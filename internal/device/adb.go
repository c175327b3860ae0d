package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"screenrec/internal/fileutil"
	"screenrec/internal/logging"
)

const (
	// DefaultBinary is the adb executable name resolved through PATH.
	DefaultBinary = "adb"

	outputTailLines = 8
	partialSuffix   = ".partial"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the driver.
type Option func(*ADB)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(a *ADB) {
		if exec != nil {
			a.exec = exec
		}
	}
}

// WithSerial targets a specific device.
func WithSerial(serial string) Option {
	return func(a *ADB) {
		a.serial = strings.TrimSpace(serial)
	}
}

// WithLogger injects a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *ADB) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// ADB drives a device through the adb command-line client.
type ADB struct {
	binary string
	serial string
	exec   Executor
	logger *slog.Logger
}

// Device is one entry of `adb devices`.
type Device struct {
	Serial string
	State  string
}

// Online reports whether adb can talk to the device.
func (d Device) Online() bool {
	return d.State == "device"
}

// CommandError reports a failed adb invocation with the tail of its output.
type CommandError struct {
	Args   []string
	Output []string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("adb %s: %v", strings.Join(e.Args, " "), e.Err)
	if len(e.Output) > 0 {
		msg += " (output: " + strings.Join(e.Output, " | ") + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// New constructs an adb driver.
func New(binary string, opts ...Option) (*ADB, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("adb binary required")
	}
	a := &ADB{
		binary: binary,
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewComponentLogger(a.logger, "adb")
	if a.serial != "" {
		a.logger = a.logger.With(logging.String(logging.FieldDevice, a.serial))
	}
	return a, nil
}

// Serial returns the targeted device serial, empty when adb picks the device.
func (a *ADB) Serial() string {
	return a.serial
}

// Shell runs command on the device and blocks until it exits.
func (a *ADB) Shell(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		return errors.New("shell command required")
	}
	return a.run(ctx, a.withSerial("shell", command), nil)
}

// PullFile copies remotePath from the device to localPath. The transfer lands
// in a partial file first so localPath never holds a truncated capture.
func (a *ADB) PullFile(ctx context.Context, remotePath, localPath string) error {
	if remotePath == "" || localPath == "" {
		return errors.New("remote and local paths required")
	}
	partial := localPath + partialSuffix
	if err := a.run(ctx, a.withSerial("pull", remotePath, partial), nil); err != nil {
		fileutil.RemovePartial(partial)
		return err
	}
	if err := fileutil.MoveFile(partial, localPath); err != nil {
		fileutil.RemovePartial(partial)
		return fmt.Errorf("finalize pulled file: %w", err)
	}
	return nil
}

// Devices lists devices known to the adb server.
func (a *ADB) Devices(ctx context.Context) ([]Device, error) {
	var lines []string
	if err := a.run(ctx, []string{"devices"}, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		return nil, err
	}
	return parseDevices(lines), nil
}

func (a *ADB) withSerial(args ...string) []string {
	if a.serial == "" {
		return args
	}
	return append([]string{"-s", a.serial}, args...)
}

func (a *ADB) run(ctx context.Context, args []string, onLine func(string)) error {
	tail := newTail(outputTailLines)
	a.logger.Debug("running adb", logging.String("args", strings.Join(args, " ")))
	err := a.exec.Run(ctx, a.binary, args, func(line string) {
		tail.add(line)
		a.logger.Debug("adb output", logging.String("line", line))
		if onLine != nil {
			onLine(line)
		}
	})
	if err != nil {
		return &CommandError{Args: args, Output: tail.lines(), Err: err}
	}
	return nil
}

func parseDevices(lines []string) []Device {
	var devices []Device
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, Device{Serial: fields[0], State: fields[1]})
	}
	return devices
}

// tail keeps the last n lines written to it.
type tail struct {
	mu    sync.Mutex
	max   int
	items []string
}

func newTail(n int) *tail {
	return &tail{max: n}
}

func (t *tail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, line)
	if len(t.items) > t.max {
		t.items = t.items[len(t.items)-t.max:]
	}
}

func (t *tail) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.items...)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onLine == nil {
				continue
			}
			mu.Lock()
			onLine(scanner.Text())
			mu.Unlock()
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
