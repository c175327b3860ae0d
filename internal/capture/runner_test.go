package capture_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"screenrec/internal/capture"
	"screenrec/internal/history"
	"screenrec/internal/recording"
	"screenrec/internal/sessionlock"
	"screenrec/internal/testsupport"
)

// fakeRecorder writes the artifact on Stop, like a mechanism finalizing its file.
type fakeRecorder struct {
	mu          sync.Mutex
	task        *recording.Task
	release     chan struct{}
	destination string
	startErr    error
	stopErr     error
	endEarly    bool
	stops       int
}

func (f *fakeRecorder) Name() string { return "fake" }

func (f *fakeRecorder) Probe() recording.Availability { return recording.Available{} }

func (f *fakeRecorder) Start(ctx context.Context, destination string) (*recording.Task, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destination = destination
	f.release = make(chan struct{})
	release := f.release
	endEarly := f.endEarly
	f.task = recording.Go(ctx, func(context.Context) error {
		if endEarly {
			return nil
		}
		<-release
		return nil
	})
	return f.task, nil
}

func (f *fakeRecorder) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	if f.task == nil {
		return nil
	}
	if !f.task.Finished() {
		close(f.release)
	}
	if err := f.task.Wait(ctx); err != nil {
		return err
	}
	f.task = nil
	if f.stopErr != nil {
		return f.stopErr
	}
	return os.WriteFile(f.destination, []byte("recorded mp4"), 0o644)
}

func newRunner(t *testing.T, rec recording.Recorder) (*capture.Runner, *history.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	return &capture.Runner{
		Recorder:    rec,
		Ledger:      store,
		LockDir:     cfg.LockDir(),
		Device:      "emulator-5554",
		Platform:    "android",
		StopTimeout: 2 * time.Second,
	}, store
}

func TestRecordStopsAfterDuration(t *testing.T) {
	rec := &fakeRecorder{}
	runner, store := newRunner(t, rec)
	dest := filepath.Join(t.TempDir(), "clips", "a.mp4")

	result, err := runner.Record(context.Background(), capture.Request{Destination: dest, Duration: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if result.Reason != capture.ReasonDuration {
		t.Fatalf("expected duration reason, got %s", result.Reason)
	}
	if result.SizeBytes != int64(len("recorded mp4")) {
		t.Fatalf("unexpected size %d", result.SizeBytes)
	}
	if rec.stops != 1 {
		t.Fatalf("expected one Stop call, got %d", rec.stops)
	}

	entry, err := store.Get(context.Background(), result.SessionID)
	if err != nil || entry == nil {
		t.Fatalf("expected history entry, got %v %v", entry, err)
	}
	if entry.Status != history.StatusCompleted || entry.SizeBytes != result.SizeBytes {
		t.Fatalf("unexpected history entry %#v", entry)
	}
	if entry.Mechanism != "fake" || entry.Device != "emulator-5554" || entry.Destination != dest {
		t.Fatalf("unexpected history metadata %#v", entry)
	}
}

func TestRecordStopsOnCancel(t *testing.T) {
	rec := &fakeRecorder{}
	runner, _ := newRunner(t, rec)
	dest := filepath.Join(t.TempDir(), "b.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	result, err := runner.Record(ctx, capture.Request{Destination: dest})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if result.Reason != capture.ReasonCancelled {
		t.Fatalf("expected cancelled reason, got %s", result.Reason)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected artifact after cancel: %v", err)
	}
}

func TestRecordStopsWhenCaptureEnds(t *testing.T) {
	rec := &fakeRecorder{endEarly: true}
	runner, _ := newRunner(t, rec)

	result, err := runner.Record(context.Background(), capture.Request{Destination: filepath.Join(t.TempDir(), "c.mp4")})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if result.Reason != capture.ReasonEnded {
		t.Fatalf("expected ended reason, got %s", result.Reason)
	}
}

func TestRecordStopFailureIsRecorded(t *testing.T) {
	rec := &fakeRecorder{stopErr: errors.New("pull failed")}
	runner, store := newRunner(t, rec)

	result, err := runner.Record(context.Background(), capture.Request{
		Destination: filepath.Join(t.TempDir(), "d.mp4"),
		Duration:    10 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected stop failure")
	}
	entry, _ := store.Get(context.Background(), result.SessionID)
	if entry == nil || entry.Status != history.StatusFailed || entry.ErrorMessage != "pull failed" {
		t.Fatalf("expected failed history entry, got %#v", entry)
	}
}

func TestRecordStartFailure(t *testing.T) {
	startErr := errors.New("scrcpy binary unavailable")
	rec := &fakeRecorder{startErr: startErr}
	runner, store := newRunner(t, rec)

	if _, err := runner.Record(context.Background(), capture.Request{Destination: filepath.Join(t.TempDir(), "e.mp4")}); !errors.Is(err, startErr) {
		t.Fatalf("expected start error, got %v", err)
	}
	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != history.StatusFailed {
		t.Fatalf("expected one failed entry, got %#v", entries)
	}
}

func TestRecordRefusesWhenDeviceLocked(t *testing.T) {
	rec := &fakeRecorder{}
	runner, _ := newRunner(t, rec)

	held, err := sessionlock.Acquire(runner.LockDir, runner.Device)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer held.Release()

	_, err = runner.Record(context.Background(), capture.Request{Destination: filepath.Join(t.TempDir(), "f.mp4")})
	if !errors.Is(err, sessionlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRecordMarksStaleSessionsInterrupted(t *testing.T) {
	rec := &fakeRecorder{}
	runner, store := newRunner(t, rec)
	ctx := context.Background()

	stale, err := store.Begin(ctx, history.BeginParams{
		Device:      runner.Device,
		Platform:    "android",
		Mechanism:   "scrcpy",
		Destination: "/tmp/stale.mp4",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := runner.Record(ctx, capture.Request{Destination: filepath.Join(t.TempDir(), "g.mp4"), Duration: 5 * time.Millisecond}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, _ := store.Get(ctx, stale.ID)
	if got.Status != history.StatusInterrupted {
		t.Fatalf("expected stale entry to be interrupted, got %s", got.Status)
	}
}

func TestRecordWithoutLedger(t *testing.T) {
	rec := &fakeRecorder{}
	runner := &capture.Runner{Recorder: rec, LockDir: t.TempDir()}
	result, err := runner.Record(context.Background(), capture.Request{
		Destination: filepath.Join(t.TempDir(), "h.mp4"),
		Duration:    5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if result.SessionID != "" {
		t.Fatalf("expected no session id without ledger, got %q", result.SessionID)
	}
}
