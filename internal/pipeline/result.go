package pipeline

import (
	"fmt"
	"time"

	"github.com/albapepper/futbol-tracker/internal/record"
)

// TaskResult tracks the outcome of one extraction task.
type TaskResult struct {
	Source   string
	Type     record.SourceType
	Phase    record.Phase
	Records  int
	Success  bool
	Kind     string
	Error    string
	Duration time.Duration
}

// Summary returns a human-readable summary.
func (r *TaskResult) Summary() string {
	status := "ok"
	if !r.Success {
		status = "FAILED(" + r.Kind + ")"
	}
	return fmt.Sprintf("source=%q type=%s phase=%s records=%d status=%s dur=%s",
		r.Source, r.Type, r.Phase, r.Records, status, r.Duration.Round(time.Millisecond))
}

// RunResult is the aggregate of one extraction pass.
type RunResult struct {
	Sources   int
	Succeeded int
	Failed    int
	Skipped   int
	Envelopes []record.Envelope
	// Played is the frozen team tally player records were derived from.
	Played   map[string]int
	Tasks    []TaskResult
	Errors   []string
	Duration time.Duration
}

// Summary returns a human-readable summary.
func (r *RunResult) Summary() string {
	return fmt.Sprintf(
		"sources=%d succeeded=%d failed=%d skipped=%d records=%d errors=%d dur=%s",
		r.Sources, r.Succeeded, r.Failed, r.Skipped, len(r.Envelopes), len(r.Errors),
		r.Duration.Round(time.Second),
	)
}
