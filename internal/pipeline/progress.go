package pipeline

import "fmt"

// Stage identifies one phase of the analysis pipeline.
type Stage int

const (
	StageProvision Stage = iota + 1
	StageExtract
	StageInfer
	StageRender
	StageAssemble
)

// String returns the stage's display name.
func (s Stage) String() string {
	switch s {
	case StageProvision:
		return "Provision grammar"
	case StageExtract:
		return "Extract symbols"
	case StageInfer:
		return "Infer call edges"
	case StageRender:
		return "Render diagram"
	case StageAssemble:
		return "Assemble report"
	default:
		return "Unknown"
	}
}

// ProgressStatus is the state of a stage as reported in a ProgressEvent.
type ProgressStatus string

const (
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressDegraded ProgressStatus = "degraded"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is one pipeline status update.
type ProgressEvent struct {
	Stage   Stage
	Status  ProgressStatus
	Message string
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of
// size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	if pr == nil {
		return
	}
	select {
	case pr.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.Stage)
	case ProgressComplete:
		if event.Message != "" {
			return fmt.Sprintf("  ✓ %s: %s", event.Stage, event.Message)
		}
		return fmt.Sprintf("  ✓ %s complete", event.Stage)
	case ProgressDegraded:
		return fmt.Sprintf("  △ %s skipped: %s", event.Stage, event.Message)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Stage, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Stage)
	}
}
