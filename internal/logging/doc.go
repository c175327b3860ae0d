// Package logging assembles structured slog loggers and formatting helpers used
// across screenrec.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so capture code can tag log lines with the
// recording session identifier. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
