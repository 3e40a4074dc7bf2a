package tasks

import (
	"fmt"

	"github.com/desertthunder/segue/internal/models"
)

// ProgressUpdate represents a progress event during resolution or population.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SearchBackends Phase = iota
	RankCandidates
	EnqueueHead
	PopulateQueue
	PopulatorDone
)

func (p Phase) String() string {
	switch p {
	case SearchBackends:
		return "search_backends"
	case RankCandidates:
		return "rank_candidates"
	case EnqueueHead:
		return "enqueue_head"
	case PopulateQueue:
		return "populate_queue"
	case PopulatorDone:
		return "populator_done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func searchBackendsUpdate(term string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchBackends,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching backends for %q...", term),
	}
}

func rankCandidatesUpdate(kept int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RankCandidates,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d candidates above threshold", kept),
	}
}

func enqueueHeadUpdate(step, total int, tr *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnqueueHead,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, tr.Artist, tr.Title),
		Data:    tr,
	}
}

func populateUpdate(step, total int, tr *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PopulateQueue,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, tr.Artist, tr.Title),
		Data:    tr,
	}
}

func populateFailedUpdate(step, total int, id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PopulateQueue,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
	}
}

func populatorDoneUpdate(resolved, failed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PopulatorDone,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Queue populated: %d added, %d skipped", resolved, failed),
	}
}
