package models

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// BaseField is the field under which errors that do not belong to a form field are stored.
const BaseField = "base"

// SubmissionFailure is returned when the server rejects an operation before any task is created.
type SubmissionFailure struct {
	Operation      Operation
	StatusCode     int
	Errors         map[string][]string // field → messages
	DisplayMessage string
}

// Message returns the most specific human readable description of the failure.
func (f *SubmissionFailure) Message() string {
	if f.DisplayMessage != "" {
		return f.DisplayMessage
	}

	if len(f.Errors) > 0 {
		fields := make([]string, 0, len(f.Errors))
		for field := range f.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		var parts []string
		for _, field := range fields {
			for _, msg := range f.Errors[field] {
				if field == BaseField {
					parts = append(parts, msg)
				} else {
					parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	if text := http.StatusText(f.StatusCode); text != "" {
		return text
	}
	return "request rejected"
}

func (f *SubmissionFailure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s submission failed (status %d): %s", f.Operation, f.StatusCode, f.Message())
	}
	return fmt.Sprintf("%s submission failed: %s", f.Operation, f.Message())
}
