package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/citas-notify/internal/theme"
)

// Verbs understood by Parse.
const (
	VerbRefresh = "refresh"
	VerbRead    = "read"
	VerbDelete  = "delete"
	VerbClear   = "clear"
	VerbLogout  = "logout"
	VerbTheme   = "theme"
	VerbQuit    = "quit"
)

var aliases = map[string]string{
	"sync":    VerbRefresh,
	"r":       VerbRefresh,
	"rm":      VerbDelete,
	"del":     VerbDelete,
	"signout": VerbLogout,
	"q":       VerbQuit,
	"exit":    VerbQuit,
}

// Command is a parsed palette entry. ID is set for read/delete when an id
// was given; Arg carries the theme name.
type Command struct {
	Verb  string
	ID    int64
	HasID bool
	Arg   string
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Command Command
}

// CancelMsg is emitted when the palette is dismissed.
type CancelMsg struct{}

// Parse turns palette input into a Command.
func Parse(input string) (Command, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	verb := fields[0]
	if a, ok := aliases[verb]; ok {
		verb = a
	}
	cmd := Command{Verb: verb}
	args := fields[1:]

	switch verb {
	case VerbRefresh, VerbClear, VerbLogout, VerbQuit:
		if len(args) > 0 {
			return Command{}, fmt.Errorf("%s takes no arguments", verb)
		}
	case VerbRead, VerbDelete:
		if len(args) > 1 {
			return Command{}, fmt.Errorf("usage: %s [id]", verb)
		}
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return Command{}, fmt.Errorf("invalid notification id %q", args[0])
			}
			cmd.ID = id
			cmd.HasID = true
		}
	case VerbTheme:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: theme <default|mono>")
		}
		cmd.Arg = args[0]
	default:
		return Command{}, fmt.Errorf("unknown command %q", fields[0])
	}
	return cmd, nil
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    error
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh | read [id] | delete [id] | clear | logout | theme <name> | quit"
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			raw := strings.TrimSpace(m.input.Value())
			if raw == "" {
				return m, nil
			}
			parsed, err := Parse(raw)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.input.Reset()
			return m, func() tea.Msg {
				return CommandMsg{Command: parsed}
			}

		case "esc":
			m.err = nil
			m.input.Reset()
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Command Palette"), m.input.View()}
	if m.err != nil {
		parts = append(parts, "", theme.ErrorStyle.Render(m.err.Error()))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
