package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/citas-notify/internal/source"
)

// SyncState represents the current state of the snapshot refresher.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "unknown"
	}
}

// SyncStatus holds the refresher state.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a refresh completes.
type SyncResultMsg struct {
	Count     int
	Unread    int
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the backend rejects the session token.
type AuthErrorMsg struct {
	Message string
}

// ChangeMsg is a tea.Msg sent whenever the notification view changed.
type ChangeMsg struct {
	View View
}

// fetchTimeout is the maximum time allowed for a single refresh.
const fetchTimeout = 30 * time.Second

// Poller refreshes the Syncer's snapshot in the background: once on Start,
// then every interval (if positive) and whenever RefreshNow is called.
type Poller struct {
	syncer   *Syncer
	interval time.Duration

	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	status  SyncStatus
	running bool
}

// NewPoller creates a Poller for s. An interval <= 0 disables periodic
// refresh.
func NewPoller(s *Syncer, interval time.Duration) *Poller {
	return &Poller{
		syncer:    s,
		interval:  interval,
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the refresh goroutine and returns a tea.Cmd that waits
// for the first result. Starting a running Poller returns nil.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go p.loop(stop)

	return p.waitForResult()
}

// Stop halts the refresh goroutine. It can be started again.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshNow triggers an immediate refresh. Triggers coalesce while one
// is pending.
func (p *Poller) RefreshNow() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
	return nil
}

// Status returns the current refresher status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop(stop <-chan struct{}) {
	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	p.refresh(stop)

	for {
		select {
		case <-stop:
			return
		case <-tick:
			p.refresh(stop)
		case <-p.triggerCh:
			p.refresh(stop)
		}
	}
}

// refresh performs one snapshot load and reports the outcome.
func (p *Poller) refresh(stop <-chan struct{}) {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := p.syncer.Refresh(ctx)
	if err != nil {
		p.setStatus(SyncError, err)

		if source.IsAuthError(err) {
			p.sendResult(SyncResultMsg{
				Error: err,
				AuthError: &AuthErrorMsg{
					Message: "session expired. Press 'L' to sign in again.",
				},
			})
			return
		}

		p.sendResult(SyncResultMsg{Error: err})
		return
	}

	view := p.syncer.View()
	p.setStatus(SyncIdle, nil)
	p.sendResult(SyncResultMsg{
		Count:  len(view.Items),
		Unread: view.Unread,
	})
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult waits for the next result of the current run. It yields
// nil once that run is stopped and no result is left.
func (p *Poller) waitForResult() tea.Cmd {
	p.mu.Lock()
	stop := p.stopCh
	p.mu.Unlock()

	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-stop:
		}
		select {
		case result := <-p.resultCh:
			return result
		default:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call it after handling a SyncResultMsg to keep listening. The
// command returns nil after Stop.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

// WaitForChange returns a tea.Cmd that blocks until the Syncer reports a
// change and delivers the current view.
func WaitForChange(s *Syncer) tea.Cmd {
	return func() tea.Msg {
		<-s.Changes()
		return ChangeMsg{View: s.View()}
	}
}
