package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
	"github.com/desertthunder/mfx/internal/tasks"
)

const (
	defaultWidth  = 80
	historyHeight = 14
)

// ModelOpts contains the dependencies of a [Model].
type ModelOpts struct {
	Coordinator   *tasks.Coordinator
	State         *tasks.ManifestState
	Submitter     tasks.Submitter
	Notifications <-chan tasks.Notification
	Progress      <-chan tasks.ProgressUpdate
	ManifestFile  string // Archive imported with u; import is unavailable when empty
	Disconnected  bool
}

// Model represents the TUI application state.
type Model struct {
	ctx           context.Context
	coord         *tasks.Coordinator
	state         *tasks.ManifestState
	submitter     tasks.Submitter
	notifications <-chan tasks.Notification
	progressChan  <-chan tasks.ProgressUpdate
	file          string
	disconnected  bool

	width      int
	details    tasks.ManifestDetails
	loaded     bool
	more       bool
	history    list.Model
	progress   tasks.ProgressUpdate
	banner     *tasks.Notification
	confirming bool
	err        error

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	history := list.New(nil, list.NewDefaultDelegate(), defaultWidth, historyHeight)
	history.Title = "Manifest History"
	history.SetShowHelp(false)
	history.SetShowStatusBar(false)
	history.SetFilteringEnabled(false)
	history.SetShowPagination(false)

	return &Model{
		ctx:           ctx,
		coord:         opts.Coordinator,
		state:         opts.State,
		submitter:     opts.Submitter,
		notifications: opts.Notifications,
		progressChan:  opts.Progress,
		file:          opts.ManifestFile,
		disconnected:  opts.Disconnected,
		width:         defaultWidth,
		history:       history,
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:          help.New(),
		keys:          newKeyMap(),
	}
}

// Init loads the organization and starts draining the coordinator's channels.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadState(), m.waitForProgress(), m.waitForNotification())
}

// Close tears down the coordinator. Updates arriving afterwards are ignored.
func (m *Model) Close() {
	m.coord.Close()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.history.SetSize(msg.Width-4, historyHeight)
		return m, nil

	case tea.KeyMsg:
		if m.confirming {
			return m.handleConfirmKeys(msg)
		}
		return m.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStateLoaded:
		m.loaded = true
		if err, _ := msg.data.(error); err != nil {
			m.err = err
		}
		m.syncState()
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		if m.progress.Phase == tasks.Complete || m.progress.Phase == tasks.Failed {
			m.syncState()
		}
		return m, m.waitForProgress()

	case MsgNotification:
		n := msg.data.(tasks.Notification)
		m.banner = &n
		return m, m.waitForNotification()

	case MsgSubmitted:
		data := msg.data.(struct {
			op  models.Operation
			err error
		})
		// Rejected submissions are already reported by the notifier.
		if errors.Is(data.err, shared.ErrTaskInFlight) || errors.Is(data.err, shared.ErrCoordinatorClosed) {
			m.setBanner(tasks.LevelError, data.err.Error())
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.upload):
		if m.file == "" {
			m.setBanner(tasks.LevelError, "No manifest file given; start with --file to import.")
			return m, nil
		}
		return m, m.submit(models.OperationImport)

	case key.Matches(msg, m.keys.refresh):
		if disabled, reason := tasks.RefreshDisabled(m.coord.IsTaskPending(), m.details, m.disconnected); disabled {
			m.setBanner(tasks.LevelError, "Refresh unavailable: "+reason+".")
			return m, nil
		}
		return m, m.submit(models.OperationRefresh)

	case key.Matches(msg, m.keys.remove):
		if !m.details.HasManifest() {
			m.setBanner(tasks.LevelError, "No manifest is imported.")
			return m, nil
		}
		m.confirming = true
		return m, nil
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.confirming = false
		return m, m.submit(models.OperationDelete)
	case key.Matches(msg, m.keys.no):
		m.confirming = false
		return m, nil
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) setBanner(level tasks.Level, text string) {
	m.banner = &tasks.Notification{Level: level, Message: text}
}

func (m *Model) syncState() {
	m.details = m.state.Details()
	entries, more := m.state.History()
	m.more = more
	m.history.SetItems(historyItems(entries))
}

func (m *Model) loadState() tea.Cmd {
	return func() tea.Msg {
		return stateLoadedMsg(m.state.Refresh(m.ctx))
	}
}

// submit runs the request on a command goroutine; Submit returns once the task is tracked.
func (m *Model) submit(op models.Operation) tea.Cmd {
	fn, err := tasks.NewRequest(m.submitter, op, m.file)
	if err != nil {
		m.setBanner(tasks.LevelError, err.Error())
		return nil
	}
	m.banner = nil
	return func() tea.Msg {
		_, err := m.coord.Submit(m.ctx, op, fn)
		return submittedMsg(op, err)
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return nil
		}
		update, ok := <-m.progressChan
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) waitForNotification() tea.Cmd {
	return func() tea.Msg {
		if m.notifications == nil {
			return nil
		}
		n, ok := <-m.notifications
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

// View renders the details view.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Subscription Manifest"))
	b.WriteString("\n")

	if !m.loaded {
		fmt.Fprintf(&b, "%s Loading organization...\n", m.spinner.View())
		return b.String()
	}

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderDetails())
	b.WriteString("\n")

	if snap := m.coord.Snapshot(); snap.Pending {
		status := snap.StatusText
		if m.progress.Message != "" && m.progress.Phase == tasks.Poll {
			status = m.progress.Message
		}
		fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), status)
	}

	if m.banner != nil {
		b.WriteString(styles.Notice(m.banner.Message, m.banner.Level == tasks.LevelError))
		b.WriteString("\n\n")
	}

	if m.confirming {
		b.WriteString(styles.warn.Render("Delete the manifest? All subscriptions will be removed from the organization."))
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
		return b.String()
	}

	b.WriteString(m.renderHistory())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderDetails() string {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render(label), value)
	}

	if org := m.details.Organization; org != nil {
		row("Organization", org.Name)
		row("CDN URL", org.RedhatRepositoryURL)
	}
	if !m.details.HasManifest() {
		row("Manifest", styles.muted.Render("No manifest imported"))
		return b.String()
	}
	row("Manifest", m.details.Name)
	if m.details.Link != "" {
		row("Link", m.details.Link)
	}
	return b.String()
}

func (m *Model) renderHistory() string {
	if len(m.history.Items()) == 0 {
		return styles.muted.Render("No manifest history.") + "\n"
	}
	view := m.history.View() + "\n"
	if m.more {
		view += styles.muted.Render("More entries are available: mfx manifest history --all") + "\n"
	}
	return view
}

func (m *Model) renderHelp() string {
	bindings := []key.Binding{}
	if m.file != "" {
		bindings = append(bindings, m.keys.upload)
	}
	if disabled, _ := tasks.RefreshDisabled(m.coord.IsTaskPending(), m.details, m.disconnected); !disabled {
		bindings = append(bindings, m.keys.refresh)
	}
	if m.details.HasManifest() {
		bindings = append(bindings, m.keys.remove)
	}
	bindings = append(bindings, m.keys.quit)
	return m.help.ShortHelpView(bindings)
}
