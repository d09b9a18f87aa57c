package app

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/nhle/citas-notify/internal/credential"
	"github.com/nhle/citas-notify/internal/keys"
	"github.com/nhle/citas-notify/internal/logging"
	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/source"
	"github.com/nhle/citas-notify/internal/store"
	appsync "github.com/nhle/citas-notify/internal/sync"
	"github.com/nhle/citas-notify/internal/theme"
	"github.com/nhle/citas-notify/internal/ui"
	"github.com/nhle/citas-notify/internal/ui/command"
	"github.com/nhle/citas-notify/internal/ui/detail"
	helpview "github.com/nhle/citas-notify/internal/ui/help"
	"github.com/nhle/citas-notify/internal/ui/notifications"
	"github.com/nhle/citas-notify/internal/ui/session"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewSession
	ViewConfirmClear
)

// SessionFactory builds a Syncer for the backend described by cfg.
type SessionFactory func(cfg *model.AppConfig) *appsync.Syncer

// SessionVault stores the session token between runs.
type SessionVault interface {
	SessionToken() (string, error)
	SetSessionToken(token string) error
	ForgetSession() error
}

var _ SessionVault = (*credential.Vault)(nil)

// Deps wires the root model. Config, Vault and NewSession are required.
type Deps struct {
	Config     *model.AppConfig
	ConfigPath string
	Vault      SessionVault
	Cache      store.Store
	Logger     logrus.FieldLogger
	NewSession SessionFactory
}

// Model is the root Bubble Tea model that manages view routing, the
// notification session and its background refresher.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	list        notifications.Model
	detail      detail.Model
	helpView    helpview.Model
	commandView command.Model
	sessionView session.Model
	confirm     *huh.Form
	confirmed   *bool

	deps Deps
	log  logrus.FieldLogger

	// epoch increments with every session so results of a previous one
	// are recognised and dropped.
	epoch   int
	syncer  *appsync.Syncer
	poller  *appsync.Poller
	view    appsync.View
	syncing bool

	ready         bool
	statusMessage string
	statusIsError bool
}

// New creates the root model. When the vault holds no token the sign-in
// form is shown first.
func New(deps Deps) Model {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewList,
		keys:        k,
		list:        notifications.New(k, 80, 22),
		detail:      detail.New(k, 80, 22),
		helpView:    helpview.New(k, 80, 22),
		commandView: command.New(80, 22),
		sessionView: session.New(deps.Config.API.BaseURL, deps.Config.Session.UserID, 80, 22),
		deps:        deps,
		log:         log.WithField("component", "app"),
	}
}

// Init starts the stored session, or the sign-in form when there is none.
func (m Model) Init() tea.Cmd {
	token, err := m.deps.Vault.SessionToken()
	if err != nil {
		m.log.WithError(err).Warn("reading session token")
	}
	userID := m.deps.Config.Session.UserID
	if token == "" || userID <= 0 {
		return func() tea.Msg { return needSessionMsg{} }
	}
	return func() tea.Msg {
		return session.SubmittedMsg{
			BaseURL: m.deps.Config.API.BaseURL,
			Token:   token,
			UserID:  userID,
		}
	}
}

// needSessionMsg switches to the sign-in form.
type needSessionMsg struct{}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.list.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.sessionView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case needSessionMsg:
		return m.showSessionForm()

	case session.SubmittedMsg:
		return m.beginSession(msg)

	case session.CancelledMsg:
		if m.syncer == nil {
			return m, tea.Quit
		}
		m.currentView = ViewList
		return m, nil

	case changeMsg:
		if msg.epoch != m.epoch {
			return m, nil
		}
		m.view = msg.View
		cmd := m.list.SetItems(msg.View.Items)
		m.syncDetail()
		return m, tea.Batch(cmd, m.waitForChange())

	case syncResultMsg:
		if msg.epoch != m.epoch {
			return m, nil
		}
		m.syncing = false
		switch {
		case msg.AuthError != nil:
			m.setStatus(msg.AuthError.Message, true)
		case msg.Error != nil:
			m.setStatus("refresh failed: "+msg.Error.Error(), true)
		case m.statusIsError:
			m.setStatus("", false)
		}
		return m, m.waitForResult()

	case restoredMsg:
		if msg.epoch == m.epoch && msg.err != nil {
			m.log.WithError(msg.err).Debug("no cached snapshot restored")
		}
		return m, nil

	case notifications.OpenMsg:
		n, ok := m.list.Find(msg.ID)
		if !ok {
			return m, nil
		}
		m.detail.SetNotification(&n)
		m.currentView = ViewDetail
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(msg.Command)

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case notifications.MarkReadMsg:
		return m, m.markRead(msg.ID)

	case notifications.DeleteMsg:
		return m, m.deleteOne(msg.ID)

	case commandResultMsg:
		if msg.epoch != m.epoch {
			return m, nil
		}
		return m.handleCommandResult(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.shutdown()
			return m, tea.Quit
		}
		if m.currentView == ViewSession || m.currentView == ViewConfirmClear ||
			m.currentView == ViewCommand {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.shutdown()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Back):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}

		case key.Matches(msg, m.keys.Command):
			if m.currentView == ViewList || m.currentView == ViewDetail {
				m.previousView = m.currentView
				m.currentView = ViewCommand
				return m, m.commandView.Focus()
			}

		case key.Matches(msg, m.keys.Refresh):
			if m.currentView == ViewList && m.poller != nil {
				m.syncing = true
				return m, m.poller.RefreshNow()
			}

		case key.Matches(msg, m.keys.ClearAll):
			if m.currentView == ViewList && m.list.Len() > 0 {
				return m.showConfirmClear()
			}

		case key.Matches(msg, m.keys.Logout):
			if m.currentView == ViewList {
				return m.logout()
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSession:
		m.sessionView, cmd = m.sessionView.Update(msg)
	case ViewConfirmClear:
		return m.updateConfirmClear(msg)
	}

	return m, cmd
}

func (m Model) showConfirmClear() (tea.Model, tea.Cmd) {
	m.confirmed = new(bool)
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Clear all notifications?").
				Description("They are deleted on the server and cannot be recovered.").
				Affirmative("Yes, clear").
				Negative("Cancel").
				Value(m.confirmed),
		),
	).WithWidth(min(60, max(20, m.layout.ContentWidth()-4)))
	m.previousView = m.currentView
	m.currentView = ViewConfirmClear
	return m, m.confirm.Init()
}

func (m Model) updateConfirmClear(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirm == nil {
		m.currentView = ViewList
		return m, nil
	}

	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		m.currentView = ViewList
		if *m.confirmed {
			return m, m.clearAll()
		}
		return m, nil
	case huh.StateAborted:
		m.currentView = ViewList
		return m, nil
	}

	return m, cmd
}

func (m Model) showSessionForm() (tea.Model, tea.Cmd) {
	m.sessionView = session.New(
		m.deps.Config.API.BaseURL,
		m.deps.Config.Session.UserID,
		m.layout.ContentWidth(),
		m.layout.ContentHeight(),
	)
	m.currentView = ViewSession
	return m, m.sessionView.Init()
}

func (m Model) handleCommandResult(msg commandResultMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		m.setStatus(msg.done, false)
		return m, nil
	}

	m.log.WithError(msg.err).WithField("action", msg.action).Warn("command failed")
	switch {
	case source.IsAuthError(msg.err):
		m.setStatus("session expired. Press 'L' to sign in again.", true)
	case errors.Is(msg.err, appsync.ErrNoSession):
		m.setStatus("not signed in. Press 'L' to sign in.", true)
	default:
		m.setStatus("could not "+msg.action+": "+msg.err.Error(), true)
	}
	return m, nil
}

func (m *Model) setStatus(text string, isError bool) {
	m.statusMessage = text
	m.statusIsError = isError
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(ui.Title(m.view.Unread), m.connectionLabel())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusText())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.list.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSession:
		return m.sessionView.View()
	case ViewConfirmClear:
		if m.confirm == nil {
			return ""
		}
		return lipgloss.NewStyle().
			Padding(1, 2).
			Width(m.layout.ContentWidth()).
			Height(m.layout.ContentHeight()).
			Render(m.confirm.View())
	default:
		return ""
	}
}

func (m Model) connectionLabel() string {
	if m.syncer == nil {
		return "offline"
	}
	return ui.ConnectionLabel(m.view.Channel)
}

// statusText returns the status message or keyboard hints for the bar.
func (m Model) statusText() string {
	if m.statusMessage != "" && (m.currentView == ViewList || m.currentView == ViewDetail) {
		if m.statusIsError {
			return theme.ErrorStyle.Render(m.statusMessage)
		}
		return m.statusMessage
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | m read | d delete | j/k scroll"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewSession:
		return "enter next | esc cancel"
	case ViewConfirmClear:
		return "←/→ choose | enter confirm | esc cancel"
	default:
		if m.syncing {
			return "refreshing..."
		}
		return "q quit | ? help | o open | enter read | d delete | D clear | r refresh | : command"
	}
}

// syncDetail keeps the detail view on the latest version of its
// notification and leaves it once the notification is gone.
func (m *Model) syncDetail() {
	id, ok := m.detail.Current()
	if !ok {
		return
	}
	n, found := m.list.Find(id)
	if !found {
		m.detail.SetNotification(nil)
		if m.currentView == ViewDetail {
			m.currentView = ViewList
		}
		if m.previousView == ViewDetail {
			m.previousView = ViewList
		}
		return
	}
	m.detail.SetNotification(&n)
}

// executeCommand handles a command from the command palette.
func (m Model) executeCommand(c command.Command) (tea.Model, tea.Cmd) {
	switch c.Verb {
	case command.VerbRefresh:
		if m.poller == nil {
			return m, nil
		}
		m.syncing = true
		return m, m.poller.RefreshNow()

	case command.VerbRead, command.VerbDelete:
		id := c.ID
		if !c.HasID {
			selected, ok := m.selectedID()
			if !ok {
				return m, nil
			}
			id = selected
		}
		if c.Verb == command.VerbRead {
			return m, m.markRead(id)
		}
		return m, m.deleteOne(id)

	case command.VerbClear:
		if m.list.Len() == 0 {
			return m, nil
		}
		m.currentView = ViewList
		return m.showConfirmClear()

	case command.VerbLogout:
		return m.logout()

	case command.VerbTheme:
		if err := theme.Apply(c.Arg); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.deps.Config.Display.Theme = c.Arg
		if m.deps.ConfigPath != "" {
			if err := model.SaveConfig(m.deps.ConfigPath, m.deps.Config); err != nil {
				m.log.WithError(err).Warn("saving config")
			}
		}
		return m, nil

	case command.VerbQuit:
		m.shutdown()
		return m, tea.Quit
	}
	return m, nil
}

// selectedID returns the notification under focus in the active view.
func (m Model) selectedID() (int64, bool) {
	if m.currentView == ViewDetail {
		return m.detail.Current()
	}
	return m.list.SelectedID()
}
