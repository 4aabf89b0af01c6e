package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

const (
	entityTooLargeText       = "Request Entity Too Large"
	fileTooLargeMessage      = "File too large."
	unreadableUploadResponse = "Unable to read upload response."
)

// payloadSelectors are checked in order when the response is an HTML document.
var payloadSelectors = []string{"pre", "textarea", "body"}

// submissionBody covers both a created task and a rejection.
type submissionBody struct {
	models.Task
	Errors         json.RawMessage `json:"errors"`
	DisplayMessage string          `json:"displayMessage"`
}

// DecodeSubmission converts the response of a task creating request into the created task.
//
// Any rejection is returned as a [*models.SubmissionFailure].
func DecodeSubmission(op models.Operation, resp *APIResponse) (models.Task, error) {
	if resp.StatusCode == http.StatusRequestEntityTooLarge || bytes.Contains(resp.Body, []byte(entityTooLargeText)) {
		return models.Task{}, &models.SubmissionFailure{
			Operation:      op,
			StatusCode:     resp.StatusCode,
			DisplayMessage: fileTooLargeMessage,
		}
	}

	payload, err := ExtractPayload(resp.Body)
	if err != nil {
		failure := &models.SubmissionFailure{Operation: op, StatusCode: resp.StatusCode}
		if resp.OK() {
			failure.DisplayMessage = unreadableUploadResponse
		}
		return models.Task{}, failure
	}

	var body submissionBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return models.Task{}, &models.SubmissionFailure{
			Operation:      op,
			StatusCode:     resp.StatusCode,
			DisplayMessage: unreadableUploadResponse,
		}
	}

	if !resp.OK() || hasErrors(body.Errors) {
		return models.Task{}, &models.SubmissionFailure{
			Operation:      op,
			StatusCode:     resp.StatusCode,
			Errors:         decodeFieldErrors(body.Errors),
			DisplayMessage: body.DisplayMessage,
		}
	}

	if body.ID == "" {
		return models.Task{}, &models.SubmissionFailure{
			Operation:      op,
			StatusCode:     resp.StatusCode,
			DisplayMessage: unreadableUploadResponse,
		}
	}
	return body.Task, nil
}

// ExtractPayload returns the JSON document carried by body.
//
// Raw JSON is returned as is. Otherwise body is parsed as HTML and the text of the first
// pre, textarea or body element holding valid JSON is returned.
func ExtractPayload(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", shared.ErrDecodeResponse)
	}
	if json.Valid(trimmed) {
		return trimmed, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDecodeResponse, err)
	}

	for _, sel := range payloadSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" && json.Valid([]byte(text)) {
			return []byte(text), nil
		}
	}
	return nil, fmt.Errorf("%w: no JSON payload in response", shared.ErrDecodeResponse)
}

func hasErrors(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]", `""`:
		return false
	default:
		return true
	}
}

// decodeFieldErrors accepts a field map, a list of messages or a single message. Field values
// may be a message or a list of messages, mixed within one map.
// Messages without a field are stored under [models.BaseField].
func decodeFieldErrors(raw json.RawMessage) map[string][]string {
	if !hasErrors(raw) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		out := make(map[string][]string, len(fields))
		for field, value := range fields {
			if msgs := errorMessages(value); len(msgs) > 0 {
				out[field] = msgs
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}

	if msgs := errorMessages(raw); len(msgs) > 0 {
		return map[string][]string{models.BaseField: msgs}
	}
	return nil
}

// errorMessages normalizes a message or a list of messages. Non-string values keep their JSON text.
func errorMessages(raw json.RawMessage) []string {
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		if msg == "" {
			return nil
		}
		return []string{msg}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, item := range list {
			out = append(out, errorMessages(item)...)
		}
		return out
	}

	if !hasErrors(raw) {
		return nil
	}
	return []string{strings.TrimSpace(string(raw))}
}

func joinMessages(msgs []string) string {
	return strings.Join(msgs, "; ")
}
