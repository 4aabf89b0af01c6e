package models

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		task         Task
		want         OutcomeKind
		unrecognized bool
	}{
		{name: "placeholder is pending", task: NewPlaceholderTask(), want: OutcomePending},
		{name: "pending ignores result", task: Task{ID: "1", Pending: true, Result: ResultSuccess}, want: OutcomePending},
		{name: "success", task: Task{ID: "1", Result: ResultSuccess}, want: OutcomeSuccess},
		{name: "error", task: Task{ID: "1", Result: ResultError}, want: OutcomeError},
		{name: "warning", task: Task{ID: "1", Result: ResultWarning}, want: OutcomeWarning},
		{name: "bogus result is an error", task: Task{ID: "1", Result: "bogus"}, want: OutcomeError, unrecognized: true},
		{name: "missing result is an error", task: Task{ID: "1"}, want: OutcomeError, unrecognized: true},
		{name: "terminal pending result is an error", task: Task{ID: "1", Result: ResultPending}, want: OutcomeError, unrecognized: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.task)
			if got.Kind != tt.want {
				t.Errorf("Classify() kind = %v, want %v", got.Kind, tt.want)
			}
			if got.Unrecognized() != tt.unrecognized {
				t.Errorf("Unrecognized() = %v, want %v", got.Unrecognized(), tt.unrecognized)
			}
		})
	}
}

func TestOutcomeDescribe(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want string
	}{
		{
			name: "output and errors",
			task: Task{Result: ResultError, Humanized: Humanized{Output: "X", Errors: []string{"A", "B"}}},
			want: "Error importing manifest. X A B",
		},
		{
			name: "errors only",
			task: Task{Result: ResultWarning, Humanized: Humanized{Errors: []string{"A"}}},
			want: "Error importing manifest. A",
		},
		{
			name: "output only",
			task: Task{Result: ResultError, Humanized: Humanized{Output: "X"}},
			want: "Error importing manifest. X",
		},
		{
			name: "no details",
			task: Task{Result: ResultError},
			want: "Error importing manifest.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.task).Describe(OperationImport.FailureMessage())
			if got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTaskDecoding(t *testing.T) {
	payload := `{
		"id": "b4c1c7a5-2c3e-4a8b-9d0e-1f2a3b4c5d6e",
		"label": "Actions::Katello::Organization::ManifestRefresh",
		"pending": false,
		"result": "warning",
		"state": "stopped",
		"progress": 1,
		"started_at": "2024-05-01T10:00:00Z",
		"ended_at": "2024-05-01T10:01:00Z",
		"humanized": {"action": "Refresh Manifest", "output": "done", "errors": ["one", "two"]}
	}`

	var task Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		t.Fatalf("failed to decode task: %v", err)
	}

	if task.Pending {
		t.Error("expected terminal task")
	}
	if task.Result != ResultWarning {
		t.Errorf("expected warning, got %s", task.Result)
	}
	if task.EndedAt == nil || task.StartedAt == nil {
		t.Error("expected timestamps to be decoded")
	}
	if len(task.Humanized.Errors) != 2 || task.Humanized.Output != "done" {
		t.Errorf("unexpected humanized details: %+v", task.Humanized)
	}
}

func TestOperation(t *testing.T) {
	t.Run("ParseOperation", func(t *testing.T) {
		for _, in := range []string{"import", " Refresh ", "DELETE"} {
			if _, err := ParseOperation(in); err != nil {
				t.Errorf("ParseOperation(%q) unexpected error: %v", in, err)
			}
		}
		if _, err := ParseOperation("upload"); err == nil {
			t.Error("expected error for unknown operation")
		}
	})

	t.Run("Texts", func(t *testing.T) {
		for _, op := range Operations {
			if op.StatusText() == "" || op.SuccessMessage() == "" || op.FailureMessage() == "" || op.SubmitErrorPrefix() == "" {
				t.Errorf("operation %s is missing texts", op)
			}
		}
		if OperationDelete.SuccessMessage() != "Manifest successfully deleted." {
			t.Errorf("unexpected delete success message %q", OperationDelete.SuccessMessage())
		}
	})
}

func TestSubmissionFailure(t *testing.T) {
	tests := []struct {
		name    string
		failure SubmissionFailure
		want    string
	}{
		{
			name:    "display message wins",
			failure: SubmissionFailure{DisplayMessage: "File too large.", Errors: map[string][]string{"base": {"x"}}},
			want:    "File too large.",
		},
		{
			name: "field errors sorted by field",
			failure: SubmissionFailure{Errors: map[string][]string{
				"content": {"is missing"},
				"base":    {"Manifest is invalid"},
			}},
			want: "Manifest is invalid; content: is missing",
		},
		{
			name:    "status text fallback",
			failure: SubmissionFailure{StatusCode: http.StatusUnprocessableEntity},
			want:    "Unprocessable Entity",
		},
		{
			name:    "nothing known",
			failure: SubmissionFailure{},
			want:    "request rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.failure.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTaskRecord(t *testing.T) {
	record := NewTaskRecord(1, 3, OperationRefresh, Task{ID: "t1", Result: ResultSuccess, Label: "L"}, "ok")
	if err := record.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
	if record.OrganizationID() != 3 || record.Label() != "L" {
		t.Errorf("unexpected record fields: %+v", record)
	}

	invalid := NewTaskRecord(1, 3, OperationRefresh, Task{Result: ResultSuccess}, "")
	if err := invalid.Validate(); err == nil {
		t.Error("expected missing task id to fail validation")
	}

	unset := NewTaskRecord(1, 3, OperationRefresh, Task{ID: "t1"}, "")
	if err := unset.Validate(); err == nil {
		t.Error("expected unset result to fail validation")
	}
}
