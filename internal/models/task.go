package models

import (
	"strings"
	"time"
)

// Result is the terminal result reported for a task.
//
// Values other than the named constants are kept verbatim so they can be reported as unrecognized.
type Result string

const (
	ResultUnset   Result = ""
	ResultPending Result = "pending"
	ResultSuccess Result = "success"
	ResultError   Result = "error"
	ResultWarning Result = "warning"
)

// Humanized carries the human readable details of a task.
type Humanized struct {
	Output string   `json:"output"`
	Errors []string `json:"errors"`
}

// Task is the handle of a server-side task and the latest snapshot of its status.
type Task struct {
	ID        string     `json:"id"`
	Label     string     `json:"label,omitempty"`
	Pending   bool       `json:"pending"`
	Result    Result     `json:"result"`
	State     string     `json:"state,omitempty"`
	Progress  float64    `json:"progress,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Humanized Humanized  `json:"humanized"`
}

// NewPlaceholderTask returns the synthetic pending task shown before the server assigns an id.
func NewPlaceholderTask() Task {
	return Task{Pending: true}
}

// IsPlaceholder reports whether t is a placeholder without a server id.
func (t Task) IsPlaceholder() bool {
	return t.ID == "" && t.Pending
}

// Terminal reports whether the task reached a terminal state.
func (t Task) Terminal() bool {
	return !t.Pending
}

// OutcomeKind enumerates the classification of a task snapshot.
type OutcomeKind int

const (
	OutcomePending OutcomeKind = iota
	OutcomeSuccess
	OutcomeError
	OutcomeWarning
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	case OutcomeWarning:
		return "warning"
	default:
		return ""
	}
}

// Outcome is the tagged classification of a task snapshot.
type Outcome struct {
	Kind   OutcomeKind
	Result Result   // Raw result as reported by the server
	Output string   // Humanized output, errors and warnings only
	Errors []string // Humanized errors, errors and warnings only
}

// Classify decodes a task snapshot into an [Outcome].
//
// A terminal task with a missing or unknown result is classified as [OutcomeError].
func Classify(t Task) Outcome {
	if t.Pending {
		return Outcome{Kind: OutcomePending, Result: t.Result}
	}

	switch t.Result {
	case ResultSuccess:
		return Outcome{Kind: OutcomeSuccess, Result: t.Result}
	case ResultWarning:
		return Outcome{Kind: OutcomeWarning, Result: t.Result, Output: t.Humanized.Output, Errors: t.Humanized.Errors}
	default:
		return Outcome{Kind: OutcomeError, Result: t.Result, Output: t.Humanized.Output, Errors: t.Humanized.Errors}
	}
}

// Succeeded reports whether the outcome is a success.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// Unrecognized reports whether the outcome was derived from an unknown result value.
func (o Outcome) Unrecognized() bool {
	return o.Kind == OutcomeError && o.Result != ResultError
}

// Describe builds the error notification text: base, then output, then errors, each separated by a space.
func (o Outcome) Describe(base string) string {
	var b strings.Builder
	b.WriteString(base)
	if o.Output != "" {
		b.WriteString(" ")
		b.WriteString(o.Output)
	}
	if len(o.Errors) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(o.Errors, " "))
	}
	return b.String()
}
