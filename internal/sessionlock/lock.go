// Package sessionlock serializes recordings per device across processes.
//
// A session takes a non-blocking advisory lock on a file named after the
// device. The lock is released when the session ends or the process dies, so
// a crash never leaves a device wedged.
package sessionlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another session already holds the device lock.
var ErrLocked = errors.New("another recording is already running for this device")

// defaultName keys the lock when no device serial is configured and adb
// picks the only connected device.
const defaultName = "default"

// Lock is a held device lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock for device under dir without blocking.
func Acquire(dir, device string) (*Lock, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("lock directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path := Path(dir, device)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location for device under dir.
func Path(dir, device string) string {
	return filepath.Join(dir, fileName(device)+".lock")
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

func fileName(device string) string {
	device = strings.TrimSpace(device)
	if device == "" {
		return defaultName
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(device)
}
