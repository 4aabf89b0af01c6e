package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mfx/internal/models"
)

var _ list.Item = historyItem{}

// historyItem wraps [models.HistoryEntry] to implement [list.Item].
type historyItem struct {
	entry models.HistoryEntry
}

func (i historyItem) FilterValue() string { return i.entry.StatusMessage }
func (i historyItem) Title() string       { return i.entry.StatusMessage }
func (i historyItem) Description() string {
	if i.entry.Created.IsZero() {
		return i.entry.Status
	}
	return fmt.Sprintf("%s • %s", i.entry.Status, i.entry.Created.Local().Format("2006-01-02 15:04:05"))
}

func historyItems(entries []models.HistoryEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e}
	}
	return items
}
