package services

import (
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "raw json", body: ` {"id":"1"} `, want: `{"id":"1"}`},
		{name: "pre wrapped", body: `<html><body><pre>{"id":"1"}</pre></body></html>`, want: `{"id":"1"}`},
		{name: "textarea wrapped", body: `<html><body><textarea>{"id":"2"}</textarea></body></html>`, want: `{"id":"2"}`},
		{name: "bare body", body: `<html><body>{"id":"3"}</body></html>`, want: `{"id":"3"}`},
		{name: "html without json", body: `<html><body><h1>Oops</h1></body></html>`, wantErr: true},
		{name: "empty", body: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPayload([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, shared.ErrDecodeResponse) {
					t.Errorf("expected ErrDecodeResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ExtractPayload() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeSubmission(t *testing.T) {
	t.Run("Task", func(t *testing.T) {
		resp := &APIResponse{StatusCode: http.StatusAccepted, Body: []byte(`{"id":"t1","pending":true,"label":"Import"}`)}
		task, err := DecodeSubmission(models.OperationImport, resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.ID != "t1" || !task.Pending || task.Label != "Import" {
			t.Errorf("unexpected task %+v", task)
		}
	})

	failures := []struct {
		name    string
		status  int
		body    string
		message string
		field   string
	}{
		{
			name:    "errors key in successful upload",
			status:  http.StatusOK,
			body:    `<textarea>{"errors":["bad"],"displayMessage":"Manifest is invalid"}</textarea>`,
			message: "Manifest is invalid",
			field:   models.BaseField,
		},
		{
			name:    "unparseable upload response",
			status:  http.StatusOK,
			body:    `<html><body><p>hello</p></body></html>`,
			message: "Unable to read upload response.",
		},
		{
			name:    "successful response without id",
			status:  http.StatusOK,
			body:    `{"pending":true}`,
			message: "Unable to read upload response.",
		},
		{
			name:    "too large by status",
			status:  http.StatusRequestEntityTooLarge,
			body:    ``,
			message: "File too large.",
		},
		{
			name:    "too large by body",
			status:  http.StatusBadGateway,
			body:    `Request Entity Too Large`,
			message: "File too large.",
		},
		{
			name:    "field map",
			status:  http.StatusUnprocessableEntity,
			body:    `{"errors":{"content":["is missing"]}}`,
			message: "content: is missing",
			field:   "content",
		},
		{
			name:    "single message per field",
			status:  http.StatusUnprocessableEntity,
			body:    `{"errors":{"content":"is missing"}}`,
			message: "content: is missing",
			field:   "content",
		},
		{
			name:    "mixed field values",
			status:  http.StatusUnprocessableEntity,
			body:    `{"errors":{"base":"Manifest is expired","name":["is taken","is too long"],"label":null}}`,
			message: "Manifest is expired; name: is taken; name: is too long",
			field:   "name",
		},
		{
			name:    "non-string field value",
			status:  http.StatusUnprocessableEntity,
			body:    `{"errors":{"quantity":[5]}}`,
			message: "quantity: 5",
			field:   "quantity",
		},
		{
			name:    "message list",
			status:  http.StatusBadRequest,
			body:    `{"errors":["one","two"]}`,
			message: "one; two",
			field:   models.BaseField,
		},
		{
			name:    "display message only",
			status:  http.StatusForbidden,
			body:    `{"displayMessage":"Access denied"}`,
			message: "Access denied",
		},
		{
			name:    "empty error body",
			status:  http.StatusInternalServerError,
			body:    ``,
			message: "Internal Server Error",
		},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			resp := &APIResponse{StatusCode: tt.status, Body: []byte(tt.body)}
			_, err := DecodeSubmission(models.OperationImport, resp)

			var failure *models.SubmissionFailure
			if !errors.As(err, &failure) {
				t.Fatalf("expected submission failure, got %v", err)
			}
			if failure.Message() != tt.message {
				t.Errorf("Message() = %q, want %q", failure.Message(), tt.message)
			}
			if tt.field != "" {
				if _, ok := failure.Errors[tt.field]; !ok {
					t.Errorf("expected errors for field %q, got %v", tt.field, failure.Errors)
				}
			}
		})
	}
}
