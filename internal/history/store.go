package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLayout keeps a fixed fraction width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const entryColumns = "id, device, platform, mechanism, destination, status, started_at, finished_at, size_bytes, error_message"

// Begin records a session that is starting and returns it.
func (s *Store) Begin(ctx context.Context, params BeginParams) (*Entry, error) {
	if strings.TrimSpace(params.Destination) == "" {
		return nil, errors.New("destination required")
	}
	if strings.TrimSpace(params.Mechanism) == "" {
		return nil, errors.New("mechanism required")
	}
	id := uuid.NewString()
	now := time.Now().UTC()

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO recordings (
            id, device, platform, mechanism, destination, status, started_at, size_bytes
        ) VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		id,
		nullableString(params.Device),
		params.Platform,
		params.Mechanism,
		params.Destination,
		StatusRecording,
		now.Format(timeLayout),
	); err != nil {
		return nil, fmt.Errorf("insert recording: %w", err)
	}
	return s.Get(ctx, id)
}

// Finish stores the outcome of a session. A nil outcome error marks it
// completed; anything else marks it failed with the error text.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	status := StatusCompleted
	var message any
	if outcome.Err != nil {
		status = StatusFailed
		message = outcome.Err.Error()
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE recordings
         SET status = ?, finished_at = ?, size_bytes = ?, error_message = ?
         WHERE id = ? AND status = ?`,
		status,
		time.Now().UTC().Format(timeLayout),
		outcome.SizeBytes,
		message,
		id,
		StatusRecording,
	)
	if err != nil {
		return fmt.Errorf("finish recording: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish recording %s: no active session with that id", id)
	}
	return nil
}

// MarkInterrupted closes sessions for device that were left recording by a
// process that never finished them. Callers hold the device lock.
func (s *Store) MarkInterrupted(ctx context.Context, device string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE recordings
         SET status = ?, finished_at = ?, error_message = ?
         WHERE status = ? AND IFNULL(device, '') = ?`,
		StatusInterrupted,
		time.Now().UTC().Format(timeLayout),
		"recording process exited before the session finished",
		StatusRecording,
		device,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted: %w", err)
	}
	return res.RowsAffected()
}

// Get fetches a session by identifier. It returns nil when none exists.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM recordings WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}
	return entry, nil
}

// List returns the most recent sessions first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM recordings ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Prune deletes finished sessions that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM recordings WHERE status <> ? AND started_at < ?`,
		StatusRecording,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune recordings: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry       Entry
		device      sql.NullString
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		message     sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&device,
		&entry.Platform,
		&entry.Mechanism,
		&entry.Destination,
		&status,
		&startedRaw,
		&finishedRaw,
		&entry.SizeBytes,
		&message,
	); err != nil {
		return nil, err
	}
	entry.Device = device.String
	entry.Status = Status(status)
	entry.ErrorMessage = message.String

	started, err := time.Parse(time.RFC3339Nano, startedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	entry.StartedAt = started
	if finishedRaw.Valid && finishedRaw.String != "" {
		finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		entry.FinishedAt = finished
	}
	return &entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
