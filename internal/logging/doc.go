// Package logging assembles structured slog loggers and formatting helpers used
// across lyricjudge.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes attribute helpers so every component tags log lines with the
// same keys (component, run_id, event_type). The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the system.
package logging
