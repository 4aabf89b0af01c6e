package tasks

import (
	"slices"
	"sync"

	"github.com/desertthunder/mfx/internal/models"
)

// DefaultHistoryLimit is the number of history entries displayed by default.
const DefaultHistoryLimit = 4

// Truncate returns at most limit entries from the front of entries.
func Truncate(entries []models.HistoryEntry, limit int) []models.HistoryEntry {
	if limit < 0 {
		limit = 0
	}
	if len(entries) <= limit {
		return entries
	}
	return entries[:limit]
}

// IsTruncated reports whether displayed omits part of all.
func IsTruncated(displayed, all []models.HistoryEntry) bool {
	return len(displayed) < len(all)
}

// HistoryFeed holds the manifest history and the subset to display.
type HistoryFeed struct {
	mu        sync.RWMutex
	limit     int
	all       []models.HistoryEntry
	displayed []models.HistoryEntry
}

// NewHistoryFeed creates an empty feed. A limit below one uses [DefaultHistoryLimit].
func NewHistoryFeed(limit int) *HistoryFeed {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &HistoryFeed{limit: limit}
}

// Replace swaps the history and recomputes the displayed subset.
func (f *HistoryFeed) Replace(entries []models.HistoryEntry) {
	all := slices.Clone(entries)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.all = all
	f.displayed = Truncate(all, f.limit)
}

// Displayed returns the entries to show.
func (f *HistoryFeed) Displayed() []models.HistoryEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.displayed)
}

// All returns every entry.
func (f *HistoryFeed) All() []models.HistoryEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.all)
}

// HasMore reports whether entries are hidden from the displayed subset.
func (f *HistoryFeed) HasMore() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return IsTruncated(f.displayed, f.all)
}

// Limit returns the display limit.
func (f *HistoryFeed) Limit() int {
	return f.limit
}
