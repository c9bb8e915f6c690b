package orchestrator

import "fmt"

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event without blocking. If the channel is full, the
// event is dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel. Emit must not be called after.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	label := event.State.String()
	if event.Index >= 0 {
		label = fmt.Sprintf("#%d %s", event.Index+1, event.Responder)
	}

	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", label)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", label)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s complete", label)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", label, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", label)
	}
}
