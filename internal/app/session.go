package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/citas-notify/internal/model"
	appsync "github.com/nhle/citas-notify/internal/sync"
	"github.com/nhle/citas-notify/internal/ui/session"
)

// commandTimeout bounds one mark-read/delete/clear request.
const commandTimeout = 15 * time.Second

// changeMsg is an appsync.ChangeMsg tagged with the session it came from.
type changeMsg struct {
	epoch int
	appsync.ChangeMsg
}

// syncResultMsg is an appsync.SyncResultMsg tagged with its session.
type syncResultMsg struct {
	epoch int
	appsync.SyncResultMsg
}

// commandResultMsg reports the outcome of a user command.
type commandResultMsg struct {
	epoch  int
	action string
	done   string
	err    error
}

// restoredMsg reports the outcome of seeding the list from the cache.
type restoredMsg struct {
	epoch int
	err   error
}

// beginSession persists the credentials, replaces any running session
// and starts the new one.
func (m Model) beginSession(msg session.SubmittedMsg) (tea.Model, tea.Cmd) {
	cfg := m.deps.Config
	changed := cfg.API.BaseURL != msg.BaseURL || cfg.Session.UserID != msg.UserID
	cfg.API.BaseURL = msg.BaseURL
	cfg.Session.UserID = msg.UserID

	if err := m.deps.Vault.SetSessionToken(msg.Token); err != nil {
		m.log.WithError(err).Warn("storing session token")
	}
	if changed && m.deps.ConfigPath != "" {
		if err := model.SaveConfig(m.deps.ConfigPath, cfg); err != nil {
			m.log.WithError(err).Warn("saving config")
		}
	}

	m.shutdown()
	m.epoch++
	m.view = appsync.View{}
	m.setStatus("", false)

	m.syncer = m.deps.NewSession(cfg)
	m.poller = appsync.NewPoller(m.syncer, cfg.Sync.RefreshInterval())
	m.syncer.Start(msg.Token, msg.UserID)
	m.syncing = true

	m.log.WithFields(logrus.Fields{
		"user_id":  msg.UserID,
		"base_url": msg.BaseURL,
	}).Info("signed in")

	m.currentView = ViewList
	epoch := m.epoch
	s := m.syncer
	restore := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return restoredMsg{epoch: epoch, err: s.Restore(ctx)}
	}

	return m, tea.Batch(
		restore,
		m.wrapResult(m.poller.Start()),
		m.waitForChange(),
	)
}

// shutdown stops the running session, if any.
func (m *Model) shutdown() {
	if m.poller != nil {
		m.poller.Stop()
	}
	if m.syncer != nil {
		m.syncer.Stop()
	}
}

// logout ends the session, forgets the token and the cached list, then
// shows the sign-in form.
func (m Model) logout() (tea.Model, tea.Cmd) {
	userID := m.deps.Config.Session.UserID

	m.shutdown()
	m.epoch++
	m.syncer = nil
	m.poller = nil
	m.view = appsync.View{}
	m.syncing = false
	m.setStatus("", false)
	m.list.SetItems(nil)

	if err := m.deps.Vault.ForgetSession(); err != nil {
		m.log.WithError(err).Warn("forgetting session token")
	}
	if m.deps.Cache != nil && userID > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		if err := m.deps.Cache.ClearSnapshot(ctx, userID); err != nil {
			m.log.WithError(err).Warn("clearing cached snapshot")
		}
		cancel()
	}
	m.log.WithField("user_id", userID).Info("signed out")

	return m.showSessionForm()
}

// waitForChange waits for the next view change of the current session.
func (m Model) waitForChange() tea.Cmd {
	if m.syncer == nil {
		return nil
	}
	epoch := m.epoch
	wait := appsync.WaitForChange(m.syncer)
	return func() tea.Msg {
		msg, _ := wait().(appsync.ChangeMsg)
		return changeMsg{epoch: epoch, ChangeMsg: msg}
	}
}

// waitForResult waits for the next refresh result of the current session.
func (m Model) waitForResult() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	return m.wrapResult(m.poller.WaitForNextResult())
}

func (m Model) wrapResult(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	epoch := m.epoch
	return func() tea.Msg {
		msg, ok := cmd().(appsync.SyncResultMsg)
		if !ok {
			return nil
		}
		return syncResultMsg{epoch: epoch, SyncResultMsg: msg}
	}
}

// runCommand runs fn against the current session in the background.
func (m Model) runCommand(action, done string, fn func(ctx context.Context, s *appsync.Syncer) error) tea.Cmd {
	epoch := m.epoch
	s := m.syncer
	return func() tea.Msg {
		if s == nil {
			return commandResultMsg{epoch: epoch, action: action, err: appsync.ErrNoSession}
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return commandResultMsg{epoch: epoch, action: action, done: done, err: fn(ctx, s)}
	}
}

func (m Model) markRead(id int64) tea.Cmd {
	return m.runCommand("mark as read", "", func(ctx context.Context, s *appsync.Syncer) error {
		return s.MarkAsRead(ctx, id)
	})
}

func (m Model) deleteOne(id int64) tea.Cmd {
	return m.runCommand("delete notification", "notification deleted", func(ctx context.Context, s *appsync.Syncer) error {
		return s.DeleteOne(ctx, id)
	})
}

func (m Model) clearAll() tea.Cmd {
	return m.runCommand("clear notifications", "notifications cleared", func(ctx context.Context, s *appsync.Syncer) error {
		return s.ClearAll(ctx)
	})
}
