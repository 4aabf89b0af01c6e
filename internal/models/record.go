package models

import (
	"fmt"
	"time"
)

var _ Model = (*TaskRecord)(nil)

// TaskRecord is the persisted terminal outcome of a manifest task.
type TaskRecord struct {
	id             string
	sequence       int
	taskID         string
	organizationID int
	operation      Operation
	result         Result
	label          string
	message        string
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewTaskRecord creates a [TaskRecord] for a terminal task.
func NewTaskRecord(sequence, organizationID int, op Operation, task Task, message string) *TaskRecord {
	now := time.Now()
	return &TaskRecord{
		sequence:       sequence,
		taskID:         task.ID,
		organizationID: organizationID,
		operation:      op,
		result:         task.Result,
		label:          task.Label,
		message:        message,
		createdAt:      now,
		updatedAt:      now,
	}
}

func (r *TaskRecord) ID() string            { return r.id }
func (r *TaskRecord) Sequence() int         { return r.sequence }
func (r *TaskRecord) TaskID() string        { return r.taskID }
func (r *TaskRecord) OrganizationID() int   { return r.organizationID }
func (r *TaskRecord) Operation() Operation  { return r.operation }
func (r *TaskRecord) Result() Result        { return r.result }
func (r *TaskRecord) Label() string         { return r.label }
func (r *TaskRecord) Message() string       { return r.message }
func (r *TaskRecord) CreatedAt() time.Time  { return r.createdAt }
func (r *TaskRecord) UpdatedAt() time.Time  { return r.updatedAt }
func (r *TaskRecord) DeletedAt() *time.Time { return r.deletedAt }

func (r *TaskRecord) SetID(id string)           { r.id = id }
func (r *TaskRecord) SetSequence(seq int)       { r.sequence = seq }
func (r *TaskRecord) SetResult(res Result)      { r.result = res }
func (r *TaskRecord) SetMessage(msg string)     { r.message = msg }
func (r *TaskRecord) SetLabel(label string)     { r.label = label }
func (r *TaskRecord) SetCreatedAt(t time.Time)  { r.createdAt = t }
func (r *TaskRecord) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *TaskRecord) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Validate checks required fields.
func (r *TaskRecord) Validate() error {
	if r.taskID == "" {
		return fmt.Errorf("task id is required")
	}
	if _, err := ParseOperation(string(r.operation)); err != nil {
		return err
	}
	if r.result == ResultUnset {
		return fmt.Errorf("result is required")
	}
	return nil
}
