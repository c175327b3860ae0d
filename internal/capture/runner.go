package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"screenrec/internal/devicewatch"
	"screenrec/internal/history"
	"screenrec/internal/logging"
	"screenrec/internal/recording"
	"screenrec/internal/sessionlock"
)

// StopReason says why a recording was stopped.
type StopReason string

const (
	ReasonCancelled StopReason = "cancelled"
	ReasonDuration  StopReason = "duration reached"
	ReasonEnded     StopReason = "capture ended"
	ReasonDetached  StopReason = "device detached"
)

// Ledger persists session outcomes. *history.Store implements it.
type Ledger interface {
	Begin(ctx context.Context, params history.BeginParams) (*history.Entry, error)
	Finish(ctx context.Context, id string, outcome history.Outcome) error
	MarkInterrupted(ctx context.Context, device string) (int64, error)
}

// Request describes one recording.
type Request struct {
	Destination string
	// Duration stops the recording after this long. Zero records until the
	// context is cancelled or the capture ends.
	Duration time.Duration
}

// Result summarizes a finished recording.
type Result struct {
	SessionID   string
	Mechanism   string
	Destination string
	SizeBytes   int64
	Elapsed     time.Duration
	Reason      StopReason
}

// Runner wires a recorder to locking, history, and detach detection.
type Runner struct {
	Recorder    recording.Recorder
	Ledger      Ledger
	LockDir     string
	Device      string
	Platform    string
	WatchUSB    bool
	StopTimeout time.Duration
	Logger      *slog.Logger
}

// Record runs a recording to completion. Cancelling ctx ends the recording
// normally: the artifact is still finalized and saved.
func (r *Runner) Record(ctx context.Context, req Request) (*Result, error) {
	if r.Recorder == nil {
		return nil, errors.New("recorder required")
	}
	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return nil, errors.New("destination required")
	}
	logger := logging.NewComponentLogger(r.Logger, "capture").With(
		logging.String(logging.FieldMechanism, r.Recorder.Name()),
	)
	if r.Device != "" {
		logger = logger.With(logging.String(logging.FieldDevice, r.Device))
	}

	lock, err := sessionlock.Acquire(r.LockDir, r.Device)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Debug("lock release failed", logging.Error(err))
		}
	}()

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return nil, fmt.Errorf("create recording directory: %w", err)
	}

	entry, err := r.begin(ctx, logger, destination)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		ctx = logging.WithSessionID(ctx, entry.ID)
	}
	logger = logging.WithContext(ctx, logger)

	result := &Result{Mechanism: r.Recorder.Name(), Destination: destination}
	if entry != nil {
		result.SessionID = entry.ID
	}

	task, err := r.Recorder.Start(ctx, destination)
	if err != nil {
		r.finish(ctx, logger, entry, history.Outcome{Err: err})
		return nil, fmt.Errorf("start %s recording: %w", r.Recorder.Name(), err)
	}
	logger.Info("recording started",
		logging.String(logging.FieldEventType, "recording_started"),
		logging.String("destination", destination),
	)

	detached := make(chan struct{})
	var detachOnce sync.Once
	if r.WatchUSB {
		watcher := devicewatch.New(r.Device, logger, func(string) {
			detachOnce.Do(func() { close(detached) })
		})
		if err := watcher.Start(ctx); err != nil {
			logger.Debug("device watcher unavailable", logging.Error(err))
		}
		defer watcher.Stop()
	}

	var limit <-chan time.Time
	if req.Duration > 0 {
		timer := time.NewTimer(req.Duration)
		defer timer.Stop()
		limit = timer.C
	}

	select {
	case <-ctx.Done():
		result.Reason = ReasonCancelled
	case <-limit:
		result.Reason = ReasonDuration
	case <-task.Done():
		result.Reason = ReasonEnded
	case <-detached:
		result.Reason = ReasonDetached
	}
	logger.Info("stopping recording",
		logging.String(logging.FieldEventType, "recording_stopping"),
		logging.String("reason", string(result.Reason)),
	)

	stopErr := r.stop(ctx)
	result.Elapsed = time.Since(task.Started())
	if stopErr == nil {
		if info, err := os.Stat(destination); err == nil {
			result.SizeBytes = info.Size()
		} else {
			stopErr = fmt.Errorf("recording not found at destination: %w", err)
		}
	}
	r.finish(ctx, logger, entry, history.Outcome{SizeBytes: result.SizeBytes, Err: stopErr})
	if stopErr != nil {
		return result, fmt.Errorf("stop %s recording: %w", r.Recorder.Name(), stopErr)
	}

	logger.Info("recording saved",
		logging.String(logging.FieldEventType, "recording_saved"),
		logging.String("destination", destination),
		logging.Int64("size_bytes", result.SizeBytes),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// stop runs Recorder.Stop on a context detached from the caller's
// cancellation and bounded by StopTimeout.
func (r *Runner) stop(ctx context.Context) error {
	stopCtx := context.WithoutCancel(ctx)
	if r.StopTimeout > 0 {
		var cancel context.CancelFunc
		stopCtx, cancel = context.WithTimeout(stopCtx, r.StopTimeout)
		defer cancel()
	}
	return r.Recorder.Stop(stopCtx)
}

func (r *Runner) begin(ctx context.Context, logger *slog.Logger, destination string) (*history.Entry, error) {
	if r.Ledger == nil {
		return nil, nil
	}
	if n, err := r.Ledger.MarkInterrupted(ctx, r.Device); err != nil {
		logger.Debug("could not close stale history entries", logging.Error(err))
	} else if n > 0 {
		logging.WarnWithContext(logger, "previous recording on this device never finished", "recording_interrupted",
			logging.Int64("sessions", n),
			logging.String(logging.FieldErrorHint, "the earlier recording file may be missing or incomplete"),
			logging.String(logging.FieldImpact, "history entries marked interrupted"),
		)
	}
	entry, err := r.Ledger.Begin(ctx, history.BeginParams{
		Device:      r.Device,
		Platform:    r.Platform,
		Mechanism:   r.Recorder.Name(),
		Destination: destination,
	})
	if err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}
	return entry, nil
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, entry *history.Entry, outcome history.Outcome) {
	if r.Ledger == nil || entry == nil {
		return
	}
	if err := r.Ledger.Finish(context.WithoutCancel(ctx), entry.ID, outcome); err != nil {
		logging.WarnWithContext(logger, "failed to record recording outcome", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database in the state directory"),
			logging.String(logging.FieldImpact, "history shows the session as still recording"),
		)
	}
}
