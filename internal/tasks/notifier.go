package tasks

import (
	"github.com/charmbracelet/log"
)

// Level is the severity of a [Notification].
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return ""
	}
}

// Notification is a user facing outcome message.
type Notification struct {
	Level   Level
	Message string
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier logs successes at info level and errors at error level.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifySuccess(msg string) { n.logger.Info(msg) }
func (n *LogNotifier) NotifyError(msg string)   { n.logger.Error(msg) }

// ChannelNotifier forwards notifications to a channel, e.g. for the TUI.
//
// Sends block, so the channel must be drained or buffered.
type ChannelNotifier struct {
	ch chan<- Notification
}

// NewChannelNotifier sends every notification on ch.
func NewChannelNotifier(ch chan<- Notification) *ChannelNotifier {
	return &ChannelNotifier{ch: ch}
}

func (n *ChannelNotifier) NotifySuccess(msg string) {
	n.ch <- Notification{Level: LevelSuccess, Message: msg}
}

func (n *ChannelNotifier) NotifyError(msg string) {
	n.ch <- Notification{Level: LevelError, Message: msg}
}

// MultiNotifier fans notifications out to every notifier.
type MultiNotifier []OutcomeNotifier

func (m MultiNotifier) NotifySuccess(msg string) {
	for _, n := range m {
		n.NotifySuccess(msg)
	}
}

func (m MultiNotifier) NotifyError(msg string) {
	for _, n := range m {
		n.NotifyError(msg)
	}
}

// NotifierFunc adapts a function to [OutcomeNotifier].
type NotifierFunc func(n Notification)

func (f NotifierFunc) NotifySuccess(msg string) { f(Notification{Level: LevelSuccess, Message: msg}) }
func (f NotifierFunc) NotifyError(msg string)   { f(Notification{Level: LevelError, Message: msg}) }

var (
	_ OutcomeNotifier = (*LogNotifier)(nil)
	_ OutcomeNotifier = (*ChannelNotifier)(nil)
	_ OutcomeNotifier = MultiNotifier(nil)
	_ OutcomeNotifier = NotifierFunc(nil)
)
