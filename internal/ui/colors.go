package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F5F", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	label  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
	banner lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		label:  NewBold(h).Width(14),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		muted:  NewEm(h),
		banner: lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()),
	}
}

// Notice renders a notification banner in the color of its level.
func (p *Palette) Notice(text string, failed bool) string {
	if failed {
		return p.banner.BorderForeground(p.err.GetForeground()).Render(p.err.Render(text))
	}
	return p.banner.BorderForeground(p.ok.GetForeground()).Render(p.ok.Render(text))
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
