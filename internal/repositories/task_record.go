package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

var _ models.Repository[*models.TaskRecord] = (*TaskRecordRepository)(nil)

const taskRecordColumns = `id, sequence, task_id, organization_id, operation, result, label, message, created_at, updated_at, deleted_at`

// ErrRecordNotFound is returned when a record does not exist or was deleted.
var ErrRecordNotFound = errors.New("task record not found")

// TaskRecordRepository implements models.Repository[*models.TaskRecord].
type TaskRecordRepository struct {
	db *sql.DB
}

// NewTaskRecordRepository creates a new TaskRecordRepository with the given database connection
func NewTaskRecordRepository(db *sql.DB) *TaskRecordRepository {
	return &TaskRecordRepository{db: db}
}

// Create inserts a new [models.TaskRecord] with a generated ID and sequence
func (r *TaskRecordRepository) Create(record *models.TaskRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "task_records")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	record.SetID(shared.GenerateID())
	record.SetSequence(sequence)

	query := `
		INSERT INTO task_records (id, sequence, task_id, organization_id, operation, result, label, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		record.ID(),
		record.Sequence(),
		record.TaskID(),
		record.OrganizationID(),
		string(record.Operation()),
		string(record.Result()),
		record.Label(),
		record.Message(),
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task record: %w", err)
	}

	return nil
}

// Get retrieves a record by ID, excluding soft-deleted records
func (r *TaskRecordRepository) Get(id string) (*models.TaskRecord, error) {
	query := `SELECT ` + taskRecordColumns + ` FROM task_records WHERE id = ? AND deleted_at IS NULL`

	record, err := scanTaskRecord(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return record, err
}

// Update changes the result, label and message of a record
func (r *TaskRecordRepository) Update(record *models.TaskRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	query := `
		UPDATE task_records
		SET result = ?, label = ?, message = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, string(record.Result()), record.Label(), record.Message(), now, record.ID())
	if err != nil {
		return fmt.Errorf("failed to update task record: %w", err)
	}

	return expectRow(result, record.ID())
}

// Delete soft-deletes a record by ID
func (r *TaskRecordRepository) Delete(id string) error {
	query := `
		UPDATE task_records
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete task record: %w", err)
	}

	return expectRow(result, id)
}

// List retrieves records matching the criteria, newest first.
//
// Supported criteria: "operation", "result", "task_id" (string), "organization_id" and "limit" (int).
func (r *TaskRecordRepository) List(criteria map[string]any) ([]*models.TaskRecord, error) {
	query := `SELECT ` + taskRecordColumns + ` FROM task_records WHERE deleted_at IS NULL`
	args := []any{}

	for _, column := range []string{"operation", "result", "task_id"} {
		if value, ok := criteria[column].(string); ok && value != "" {
			query += " AND " + column + " = ?"
			args = append(args, value)
		}
	}

	if orgID, ok := criteria["organization_id"].(int); ok && orgID > 0 {
		query += " AND organization_id = ?"
		args = append(args, orgID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query task records: %w", err)
	}
	defer rows.Close()

	var records []*models.TaskRecord
	for rows.Next() {
		record, err := scanTaskRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTaskRecord scans a [sql.Row] or the current row of [sql.Rows] into a [models.TaskRecord]
func scanTaskRecord(s scanner) (*models.TaskRecord, error) {
	var (
		id             string
		sequence       int
		taskID         string
		organizationID int
		operation      string
		result         string
		label          sql.NullString
		message        sql.NullString
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      sql.NullTime
	)

	err := s.Scan(&id, &sequence, &taskID, &organizationID, &operation, &result, &label, &message, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task record: %w", err)
	}

	task := models.Task{ID: taskID, Result: models.Result(result), Label: label.String}
	record := models.NewTaskRecord(sequence, organizationID, models.Operation(operation), task, message.String)
	record.SetID(id)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}

	return record, nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}
