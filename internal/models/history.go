package models

import "time"

// HistoryEntry is one entry of the manifest history, newest first as returned by the server.
type HistoryEntry struct {
	ID            string    `json:"id,omitempty"`
	Status        string    `json:"status"`
	StatusMessage string    `json:"statusMessage"`
	Created       time.Time `json:"created"`
}
