package session

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/citas-notify/internal/credential"
	"github.com/nhle/citas-notify/internal/theme"
)

// SubmittedMsg carries the credentials entered by the user.
type SubmittedMsg struct {
	BaseURL string
	Token   string
	UserID  int64
}

// CancelledMsg is sent when the user aborts the form.
type CancelledMsg struct{}

// formValues is shared with the form's inputs, so it survives copies of
// Model.
type formValues struct {
	baseURL string
	token   string
	userID  string
}

// Model is the sign-in form.
type Model struct {
	form   *huh.Form
	values *formValues

	err    error
	width  int
	height int
}

// New creates a sign-in form prefilled with baseURL and userID.
func New(baseURL string, userID int64, width, height int) Model {
	m := Model{
		values: &formValues{baseURL: baseURL},
		width:  width,
		height: height,
	}
	if userID > 0 {
		m.values.userID = strconv.FormatInt(userID, 10)
	}
	m.form = m.buildForm()
	return m
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Base address of the appointments API").
				Placeholder("http://localhost:8000").
				Value(&m.values.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Session token").
				Description("Bearer token issued at login").
				EchoMode(huh.EchoModePassword).
				Value(&m.values.token).
				Validate(validateRequired("Token")),
			huh.NewInput().
				Title("User ID").
				Description("Leave empty to read it from the token").
				Value(&m.values.userID).
				Validate(validateUserID),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w > 80 {
		w = 80
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Init returns the form's initial command.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update forwards input to the form and reports completion.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.submit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelledMsg{} }
	}

	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	out, err := resolve(m.values.baseURL, m.values.token, m.values.userID)
	if err != nil {
		m.err = err
		m.form = m.buildForm()
		return m, m.form.Init()
	}
	m.err = nil
	return m, func() tea.Msg { return out }
}

// resolve turns the raw form values into a SubmittedMsg. An empty user id
// is taken from the token's claims.
func resolve(baseURL, token, userID string) (SubmittedMsg, error) {
	out := SubmittedMsg{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Token:   strings.TrimSpace(token),
	}

	if s := strings.TrimSpace(userID); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return SubmittedMsg{}, fmt.Errorf("invalid user id: %w", err)
		}
		out.UserID = id
		return out, nil
	}

	id, err := credential.UserIDFromToken(out.Token)
	if err != nil {
		return SubmittedMsg{}, fmt.Errorf("enter a user id: %w", err)
	}
	out.UserID = id
	return out, nil
}

// View renders the form.
func (m Model) View() string {
	content := m.form.View()
	if m.err != nil {
		content = lipgloss.JoinVertical(lipgloss.Left,
			theme.ErrorStyle.Render(m.err.Error()),
			"",
			content,
		)
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(m.formWidth())
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host (e.g., http://localhost:8000)")
	}
	return nil
}

func validateUserID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("user id must be a positive number")
	}
	return nil
}
