package models

import (
	"fmt"
	"strings"
)

// Operation is a manifest operation that runs as a server-side task.
type Operation string

const (
	OperationImport  Operation = "import"
	OperationRefresh Operation = "refresh"
	OperationDelete  Operation = "delete"
)

// Operations lists every supported [Operation].
var Operations = []Operation{OperationImport, OperationRefresh, OperationDelete}

type operationText struct {
	status       string
	success      string
	failure      string
	submitPrefix string
}

var operationTexts = map[Operation]operationText{
	OperationImport: {
		status:       "Uploading Manifest",
		success:      "Manifest successfully imported.",
		failure:      "Error importing manifest.",
		submitPrefix: "Error during upload: ",
	},
	OperationRefresh: {
		status:       "Refreshing Manifest",
		success:      "Manifest successfully refreshed.",
		failure:      "Error refreshing manifest.",
		submitPrefix: "Error refreshing manifest: ",
	},
	OperationDelete: {
		status:       "Removing Manifest",
		success:      "Manifest successfully deleted.",
		failure:      "Error deleting manifest.",
		submitPrefix: "Error deleting manifest: ",
	},
}

// ParseOperation converts user input into an [Operation].
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := operationTexts[op]; !ok {
		return "", fmt.Errorf("unknown operation %q (must be import, refresh or delete)", s)
	}
	return op, nil
}

func (o Operation) String() string { return string(o) }

// StatusText is shown while the operation's task is pending.
func (o Operation) StatusText() string { return operationTexts[o].status }

// SuccessMessage is the notification emitted when the task succeeds.
func (o Operation) SuccessMessage() string { return operationTexts[o].success }

// FailureMessage is the base text of the notification emitted when the task fails.
func (o Operation) FailureMessage() string { return operationTexts[o].failure }

// SubmitErrorPrefix prefixes notifications for rejected submissions.
func (o Operation) SubmitErrorPrefix() string { return operationTexts[o].submitPrefix }
