package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/citas-notify/internal/channel"
	"github.com/nhle/citas-notify/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// Title returns the panel title with the unread badge, if any.
func Title(unread int) string {
	if unread > 0 {
		return fmt.Sprintf("Notificaciones [%d new]", unread)
	}
	return "Notificaciones"
}

// ConnectionLabel maps a live channel status to the short label shown in
// the header.
func ConnectionLabel(st channel.Status) string {
	switch st.State {
	case channel.StateOpen:
		return "live"
	case channel.StateConnecting:
		if st.Attempt > 0 {
			return "reconnecting"
		}
		return "connecting"
	case channel.StateClosed, channel.StateReconnectScheduled:
		return "reconnecting"
	default:
		return "offline"
	}
}

// RenderHeader renders the top header bar with a title and the live
// channel indicator.
func (l Layout) RenderHeader(title string, connection string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	indicator := theme.ConnectionStyle(connection).
		Background(theme.HeaderStyle.GetBackground()).
		Render("● " + connection)
	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(indicator)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
