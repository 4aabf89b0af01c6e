package repositories

import (
	"fmt"

	"github.com/desertthunder/mfx/internal/models"
)

// TaskRecorder implements tasks.Recorder using TaskRecordRepository.
//
// A task id is stored once; repeated records for the same task update the existing row.
type TaskRecorder struct {
	repo           *TaskRecordRepository
	organizationID int
}

// NewTaskRecorder creates a recorder for one organization
func NewTaskRecorder(repo *TaskRecordRepository, organizationID int) *TaskRecorder {
	return &TaskRecorder{repo: repo, organizationID: organizationID}
}

// Record persists the terminal outcome of task.
func (a *TaskRecorder) Record(op models.Operation, task models.Task, outcome models.Outcome, message string) error {
	result := task.Result
	if result == models.ResultUnset {
		result = models.Result(outcome.Kind.String())
	}
	task.Result = result

	existing, err := a.repo.List(map[string]any{"task_id": task.ID, "limit": 1})
	if err != nil {
		return fmt.Errorf("failed to look up task record: %w", err)
	}

	if len(existing) > 0 {
		record := existing[0]
		record.SetResult(result)
		record.SetLabel(task.Label)
		record.SetMessage(message)
		return a.repo.Update(record)
	}

	record := models.NewTaskRecord(0, a.organizationID, op, task, message)
	if err := a.repo.Create(record); err != nil {
		return fmt.Errorf("failed to record task: %w", err)
	}
	return nil
}
