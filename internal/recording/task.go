package recording

import (
	"context"
	"sync"
	"time"
)

// Task is a handle to a detached capture operation. The operation runs on its
// own goroutine; Wait blocks until it finishes and returns its error.
type Task struct {
	done    chan struct{}
	cancel  context.CancelFunc
	started time.Time

	mu  sync.Mutex
	err error
}

// Go runs fn on a new goroutine. The context passed to fn is detached from
// ctx's cancellation so a short-lived caller context does not end the
// capture; use Cancel to abort it.
func Go(ctx context.Context, fn func(ctx context.Context) error) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &Task{
		done:    make(chan struct{}),
		cancel:  cancel,
		started: time.Now(),
	}
	go func() {
		defer close(t.done)
		defer cancel()
		err := fn(taskCtx)
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()
	return t
}

// Done is closed once the operation has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Finished reports whether the operation has returned.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Err returns the operation's error. It is nil until the task has finished.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the operation finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel asks the operation to abort by cancelling its context.
func (t *Task) Cancel() {
	t.cancel()
}

// Started returns when the task was launched.
func (t *Task) Started() time.Time {
	return t.started
}
