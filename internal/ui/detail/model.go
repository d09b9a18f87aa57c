package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/citas-notify/internal/keys"
	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/theme"
	"github.com/nhle/citas-notify/internal/ui/notifications"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Model shows one notification in full.
type Model struct {
	item     *model.Notification
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
		if m.item == nil {
			return m, nil
		}

		id := m.item.ID
		switch {
		case key.Matches(msg, m.keys.MarkRead):
			if m.item.Read {
				return m, nil
			}
			return m, func() tea.Msg { return notifications.MarkReadMsg{ID: id} }

		case key.Matches(msg, m.keys.Delete):
			return m, func() tea.Msg { return notifications.DeleteMsg{ID: id} }
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.item == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notification selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.item == nil {
		return ""
	}

	n := m.item
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(n.Title))

	state := theme.MutedStyle.Render("read")
	if !n.Read {
		state = theme.UnreadStyle.Render("unread")
	}
	sections = append(sections, state, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%-10s %s", metaStyle.Render(label), valStyle.Render(value))
	}

	if t := n.CreatedTime(); !t.IsZero() {
		sections = append(sections, row("Fecha:", t.Local().Format(notifications.DateLayout)))
	} else if n.CreatedAt != "" {
		sections = append(sections, row("Fecha:", n.CreatedAt))
	}
	sections = append(sections, row("ID:", fmt.Sprintf("%d", n.ID)))
	if n.StudentID != nil {
		sections = append(sections, row("Student:", fmt.Sprintf("%d", *n.StudentID)))
	}
	if n.PsychologistID != nil {
		sections = append(sections, row("Psych.:", fmt.Sprintf("%d", *n.PsychologistID)))
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(0, min(m.width-4, 80))))
	sections = append(sections, "", separator, "")

	body := strings.TrimSpace(n.Description)
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	} else {
		body = lipgloss.NewStyle().Width(max(20, min(m.width-4, 80))).Render(body)
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetNotification updates the notification being displayed.
func (m *Model) SetNotification(n *model.Notification) {
	scrollReset := m.item == nil || n == nil || m.item.ID != n.ID
	m.item = n
	m.viewport.SetContent(m.renderContent())
	if scrollReset {
		m.viewport.GotoTop()
	}
}

// Current returns the id of the displayed notification.
func (m Model) Current() (int64, bool) {
	if m.item == nil {
		return 0, false
	}
	return m.item.ID, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
