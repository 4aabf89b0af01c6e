package tasks

import (
	"fmt"

	"github.com/desertthunder/mfx/internal/models"
)

// ProgressUpdate represents a progress event during a manifest operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase     Phase            // Operation phase
	Operation models.Operation // Operation the update belongs to
	Message   string           // Human-readable message for display
	Progress  float64          // Server reported progress, 0 to 1
	Task      *models.Task     // Latest snapshot, nil before the server assigns an id
}

// Operation phase enumeration
type Phase int

const (
	Submit Phase = iota
	Poll
	Complete
	Failed
)

func (p Phase) String() string {
	switch p {
	case Submit:
		return "submit"
	case Poll:
		return "poll"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func submitUpdate(op models.Operation) ProgressUpdate {
	return ProgressUpdate{
		Phase:     Submit,
		Operation: op,
		Message:   op.StatusText() + "...",
	}
}

func trackingUpdate(op models.Operation, task models.Task) ProgressUpdate {
	return ProgressUpdate{
		Phase:     Poll,
		Operation: op,
		Message:   fmt.Sprintf("Tracking task %s", task.ID),
		Task:      &task,
	}
}

func pollUpdate(op models.Operation, task models.Task) ProgressUpdate {
	msg := fmt.Sprintf("%s (%.0f%%)", op.StatusText(), task.Progress*100)
	if task.State != "" {
		msg = fmt.Sprintf("%s [%s]", msg, task.State)
	}
	return ProgressUpdate{
		Phase:     Poll,
		Operation: op,
		Message:   msg,
		Progress:  task.Progress,
		Task:      &task,
	}
}

func completeUpdate(op models.Operation, task models.Task, outcome models.Outcome) ProgressUpdate {
	phase := Complete
	if !outcome.Succeeded() {
		phase = Failed
	}
	return ProgressUpdate{
		Phase:     phase,
		Operation: op,
		Message:   fmt.Sprintf("Task %s finished: %s", task.ID, outcome.Kind),
		Progress:  1,
		Task:      &task,
	}
}

func submitFailedUpdate(op models.Operation, msg string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     Failed,
		Operation: op,
		Message:   op.SubmitErrorPrefix() + msg,
	}
}

func abandonedUpdate(op models.Operation, msg string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     Failed,
		Operation: op,
		Message:   msg,
	}
}

// sendProgress sends without blocking; updates are dropped when nobody is reading.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
