package notifications

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/citas-notify/internal/keys"
	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/theme"
)

// EmptyText is shown when the user has no notifications.
const EmptyText = "No tienes notificaciones."

// MarkReadMsg asks the application to mark a notification as read.
type MarkReadMsg struct {
	ID int64
}

// OpenMsg asks the application to show a notification in full.
type OpenMsg struct {
	ID int64
}

// DeleteMsg asks the application to delete a notification.
type DeleteMsg struct {
	ID int64
}

// Model is the notification list view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates an empty list view.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetItems replaces the rows, keeping the cursor on the same notification
// when it is still present.
func (m *Model) SetItems(items []model.Notification) tea.Cmd {
	selected, hadSelection := m.SelectedID()
	cursor := m.list.Index()

	rows := make([]list.Item, len(items))
	for i, n := range items {
		rows[i] = Item{Notification: n}
		if hadSelection && n.ID == selected {
			cursor = i
		}
	}
	cmd := m.list.SetItems(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor >= 0 {
		m.list.Select(cursor)
	}
	return cmd
}

// Find returns the row with id.
func (m Model) Find(id int64) (model.Notification, bool) {
	for _, it := range m.list.Items() {
		if row, ok := it.(Item); ok && row.Notification.ID == id {
			return row.Notification, true
		}
	}
	return model.Notification{}, false
}

// Len returns the number of rows.
func (m Model) Len() int {
	return len(m.list.Items())
}

// SelectedID returns the id of the focused notification.
func (m Model) SelectedID() (int64, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return 0, false
	}
	return it.Notification.ID, true
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Open):
			id, ok := m.SelectedID()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return OpenMsg{ID: id} }

		case key.Matches(msg, m.keys.MarkRead):
			it, ok := m.list.SelectedItem().(Item)
			if !ok || it.Notification.Read {
				return m, nil
			}
			id := it.Notification.ID
			return m, func() tea.Msg { return MarkReadMsg{ID: id} }

		case key.Matches(msg, m.keys.Delete):
			id, ok := m.SelectedID()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return DeleteMsg{ID: id} }
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list or the empty state.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(EmptyText)
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
