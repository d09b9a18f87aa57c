package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/citas-notify/internal/keys"
	"github.com/nhle/citas-notify/internal/theme"
)

// connectionLegend explains the header indicator.
var connectionLegend = []struct{ label, text string }{
	{"live", "receiving notifications as they happen"},
	{"connecting", "opening the live channel"},
	{"reconnecting", "channel lost, retrying with backoff"},
	{"offline", "no live channel; press r to refresh"},
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	legend := []string{titleStyle.MarginTop(1).Render("Connection")}
	for _, l := range connectionLegend {
		legend = append(legend,
			theme.ConnectionStyle(l.label).Render("● "+l.label)+"  "+theme.MutedStyle.Render(l.text),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		helpText,
		lipgloss.JoinVertical(lipgloss.Left, legend...),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
