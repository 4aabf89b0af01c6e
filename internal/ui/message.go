package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStateLoaded MsgKind = iota
	MsgProgressUpdate
	MsgNotification
	MsgSubmitted
)

// stateLoadedMsg is the constructor for [MsgStateLoaded]
func stateLoadedMsg(err error) Msg {
	return Msg{kind: MsgStateLoaded, data: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// notificationMsg is the constructor for [MsgNotification]
func notificationMsg(n tasks.Notification) Msg {
	return Msg{kind: MsgNotification, data: n}
}

// submittedMsg is the constructor for [MsgSubmitted]
func submittedMsg(op models.Operation, err error) Msg {
	return Msg{
		kind: MsgSubmitted,
		data: struct {
			op  models.Operation
			err error
		}{op, err},
	}
}
