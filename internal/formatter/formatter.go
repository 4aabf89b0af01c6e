// package formatter renders manifest history to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

// Format is an output format for history exports.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat converts a flag value into a [Format].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatCSV, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "txt", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (must be text, csv, markdown or json)", shared.ErrInvalidFlag, s)
	}
}

// Row is one history line, from the server history or from local task records.
type Row struct {
	Time      time.Time `json:"time"`
	Status    string    `json:"status"`
	Operation string    `json:"operation,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Message   string    `json:"message"`
}

// History is a titled list of rows.
type History struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
	More  bool   `json:"more"` // Rows were truncated
}

// FromEntries converts server history entries.
func FromEntries(title string, entries []models.HistoryEntry, more bool) History {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{Time: e.Created, Status: e.Status, Message: e.StatusMessage})
	}
	return History{Title: title, Rows: rows, More: more}
}

// FromRecords converts locally persisted task records.
func FromRecords(title string, records []*models.TaskRecord) History {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			Time:      r.CreatedAt(),
			Status:    string(r.Result()),
			Operation: string(r.Operation()),
			TaskID:    r.TaskID(),
			Message:   r.Message(),
		})
	}
	return History{Title: title, Rows: rows}
}

// Export renders h in format f.
func Export(f Format, h History) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(h)
	case FormatMarkdown:
		return ExportToMarkdown(h)
	case FormatJSON:
		return shared.MarshalJSON(h, true)
	case FormatText, "":
		return ExportToText(h)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToCSV writes columns: Time, Status, Operation, Task, Message
func ExportToCSV(h History) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Time", "Status", "Operation", "Task", "Message"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range h.Rows {
		record := []string{
			formatTime(row.Time),
			row.Status,
			row.Operation,
			row.TaskID,
			row.Message,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a table under a heading
func ExportToMarkdown(h History) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", h.Title)
	if len(h.Rows) == 0 {
		buf.WriteString("_No history._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Time | Status | Operation | Message |\n")
	buf.WriteString("|------|--------|-----------|---------|\n")
	for _, row := range h.Rows {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s |\n",
			formatTime(row.Time),
			escapeCell(row.Status),
			escapeCell(row.Operation),
			escapeCell(row.Message),
		)
	}

	if h.More {
		buf.WriteString("\n_More entries are available._\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders one numbered line per row
func ExportToText(h History) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", h.Title)
	if len(h.Rows) == 0 {
		buf.WriteString("  (no history)\n")
		return buf.Bytes(), nil
	}

	for i, row := range h.Rows {
		status := row.Status
		if row.Operation != "" {
			status = row.Operation + " " + status
		}
		fmt.Fprintf(&buf, "%d. [%s] %s: %s\n", i+1, formatTime(row.Time), status, row.Message)
	}

	if h.More {
		buf.WriteString("...\n")
	}

	return buf.Bytes(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
