package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newRecord(taskID string, op models.Operation, result models.Result) *models.TaskRecord {
	task := models.Task{ID: taskID, Result: result, Label: "Actions::Katello::Organization::ManifestRefresh"}
	return models.NewTaskRecord(0, 1, op, task, "message for "+taskID)
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "task_records")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestTaskRecordRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRecordRepository(db)
		record := newRecord("t1", models.OperationImport, models.ResultSuccess)

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
		if record.ID() == "" {
			t.Error("record ID should be set after creation")
		}
		if record.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", record.Sequence())
		}
	})

	t.Run("Create Validation Error", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRecordRepository(db)
		record := newRecord("", models.OperationImport, models.ResultSuccess)

		if err := repo.Create(record); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRecordRepository(db)
		record := newRecord("t1", models.OperationRefresh, models.ResultWarning)
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		retrieved, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}

		if retrieved.TaskID() != "t1" || retrieved.Operation() != models.OperationRefresh || retrieved.Result() != models.ResultWarning {
			t.Errorf("unexpected record %s/%s/%s", retrieved.TaskID(), retrieved.Operation(), retrieved.Result())
		}
		if retrieved.Label() != record.Label() || retrieved.Message() != record.Message() {
			t.Errorf("expected label and message to round trip, got %q %q", retrieved.Label(), retrieved.Message())
		}
		if retrieved.CreatedAt().IsZero() {
			t.Error("expected created_at to be set")
		}
	})

	t.Run("Get Not Found", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewTaskRecordRepository(db).Get("missing"); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRecordRepository(db)
		record := newRecord("t1", models.OperationDelete, models.ResultError)
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		record.SetResult(models.ResultSuccess)
		record.SetMessage("Manifest successfully deleted.")
		if err := repo.Update(record); err != nil {
			t.Fatalf("failed to update record: %v", err)
		}

		retrieved, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if retrieved.Result() != models.ResultSuccess || retrieved.Message() != "Manifest successfully deleted." {
			t.Errorf("update not persisted: %s %q", retrieved.Result(), retrieved.Message())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRecordRepository(db)
		record := newRecord("t1", models.OperationImport, models.ResultSuccess)
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if err := repo.Delete(record.ID()); err != nil {
			t.Fatalf("failed to delete record: %v", err)
		}
		if _, err := repo.Get(record.ID()); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("expected deleted record to be hidden, got %v", err)
		}
		if err := repo.Delete(record.ID()); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("expected second delete to fail, got %v", err)
		}
		if err := repo.Update(record); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("expected update of deleted record to fail, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRecordRepository(db)
		for _, r := range []*models.TaskRecord{
			newRecord("t1", models.OperationImport, models.ResultSuccess),
			newRecord("t2", models.OperationRefresh, models.ResultError),
			newRecord("t3", models.OperationRefresh, models.ResultSuccess),
			newRecord("t4", models.OperationDelete, models.ResultWarning),
		} {
			if err := repo.Create(r); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     []string
		}{
			{name: "all newest first", criteria: map[string]any{}, want: []string{"t4", "t3", "t2", "t1"}},
			{name: "by operation", criteria: map[string]any{"operation": "refresh"}, want: []string{"t3", "t2"}},
			{name: "by result", criteria: map[string]any{"result": "success"}, want: []string{"t3", "t1"}},
			{name: "by task id", criteria: map[string]any{"task_id": "t2"}, want: []string{"t2"}},
			{name: "by organization", criteria: map[string]any{"organization_id": 2}, want: nil},
			{name: "limited", criteria: map[string]any{"limit": 2}, want: []string{"t4", "t3"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				records, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list records: %v", err)
				}
				if len(records) != len(tt.want) {
					t.Fatalf("expected %d records, got %d", len(tt.want), len(records))
				}
				for i, id := range tt.want {
					if records[i].TaskID() != id {
						t.Errorf("record %d = %s, want %s", i, records[i].TaskID(), id)
					}
				}
			})
		}
	})
}

func TestTaskRecorder(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewTaskRecordRepository(db)
	recorder := NewTaskRecorder(repo, 3)

	task := models.Task{ID: "t1", Result: models.ResultError}
	if err := recorder.Record(models.OperationRefresh, task, models.Classify(task), "Error refreshing manifest."); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	task.Result = models.ResultSuccess
	if err := recorder.Record(models.OperationRefresh, task, models.Classify(task), "Manifest successfully refreshed."); err != nil {
		t.Fatalf("failed to record again: %v", err)
	}

	records, err := repo.List(map[string]any{"task_id": "t1"})
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record per task, got %d", len(records))
	}
	if records[0].Result() != models.ResultSuccess || records[0].OrganizationID() != 3 {
		t.Errorf("unexpected record %s org=%d", records[0].Result(), records[0].OrganizationID())
	}

	t.Run("Missing Result Uses Outcome", func(t *testing.T) {
		synthetic := models.Task{ID: "t2"}
		if err := recorder.Record(models.OperationImport, synthetic, models.Classify(synthetic), "Error importing manifest."); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		records, _ := repo.List(map[string]any{"task_id": "t2"})
		if len(records) != 1 || records[0].Result() != models.ResultError {
			t.Errorf("expected error result, got %+v", records)
		}
	})
}
