package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	upload  key.Binding
	refresh key.Binding
	remove  key.Binding
	yes     key.Binding
	no      key.Binding
	up      key.Binding
	down    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		upload:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "import")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.upload, k.refresh, k.remove, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.upload, k.refresh, k.remove},
		{k.up, k.down},
		{k.yes, k.no, k.quit},
	}
}
