// Package telemetry is the ambient logging and metrics layer every other
// component depends on. It replaces the teacher's hand-rolled exposition
// format with prometheus/client_golang while keeping its slog-based,
// component-tagged logger shape.
package telemetry

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// NewLogger builds the process-wide base logger. verbose raises the level
// to debug, matching the teacher's setupLogger.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// WithJob derives a child logger for one job invocation, tagged with a
// fresh correlation id so every line a run emits can be grepped together.
func WithJob(base *slog.Logger, jobName string) (*slog.Logger, string) {
	runID := uuid.NewString()
	return base.With("job", jobName, "run_id", runID), runID
}
