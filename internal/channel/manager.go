package channel

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/nhle/citas-notify/internal/logging"
)

// State is a phase of the live channel lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateReconnectScheduled
	StateGaveUp
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateReconnectScheduled:
		return "reconnect_scheduled"
	case StateGaveUp:
		return "gave_up"
	default:
		return "unknown"
	}
}

// DefaultHeartbeat is the keep-alive ping interval.
const DefaultHeartbeat = 25 * time.Second

var pingPayload = []byte("ping")

// Status is a point-in-time view of the channel, delivered to OnStatus.
type Status struct {
	State     State
	Attempt   int
	Connected bool
	Err       error
}

// Config wires a Manager. Only BaseURL is required.
type Config struct {
	// BaseURL is the websocket base, see SocketBase.
	BaseURL string

	Heartbeat   time.Duration
	Backoff     Backoff
	MaxAttempts int

	Dialer Dialer
	Clock  Clock
	Logger logrus.FieldLogger

	// OnMessage receives every inbound frame of the current connection.
	// Like OnStatus it runs with the lock held and must not call back into
	// the Manager.
	OnMessage func([]byte)

	// OnStatus is called with the manager's lock held on every state
	// change. It must not call back into the Manager.
	OnStatus func(Status)
}

// Manager owns the single live connection of a session. The socket, the
// heartbeat ticker and the reconnect timer are never exposed.
type Manager struct {
	cfg Config
	log logrus.FieldLogger

	mu            sync.Mutex
	state         State
	token         string
	conn          Conn
	attempt       int
	lastErr       error
	reconnect     Timer
	reconnectSeq  uint64
	dialSeq       uint64
	dialCancel    context.CancelFunc
	heartbeatStop chan struct{}
}

// NewManager creates an idle manager.
func NewManager(cfg Config) *Manager {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = NewWSDialer(10 * time.Second)
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{
		cfg: cfg,
		log: log.WithField("component", "channel"),
	}
}

// Start connects with token. An empty token tears the channel down and
// returns ErrNoToken. Starting again with the same token while active is
// a no-op; a different token replaces the connection.
func (m *Manager) Start(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		m.teardownLocked()
		m.token = ""
		m.attempt = 0
		m.setStateLocked(StateIdle)
		return ErrNoToken
	}

	if token == m.token && m.state != StateIdle && m.state != StateGaveUp {
		return nil
	}

	m.teardownLocked()
	m.token = token
	m.attempt = 0
	m.lastErr = nil
	m.connectLocked()
	return nil
}

// Stop cancels any pending reconnect, stops the heartbeat and closes the
// socket. No transitions happen afterwards until the next Start.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()
	m.token = ""
	m.attempt = 0
	m.setStateLocked(StateIdle)
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether a socket is open.
func (m *Manager) Connected() bool {
	return m.State() == StateOpen
}

// Attempt returns the consecutive failed-connection counter.
func (m *Manager) Attempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt
}

// Status returns a snapshot of the channel.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Manager) statusLocked() Status {
	return Status{
		State:     m.state,
		Attempt:   m.attempt,
		Connected: m.state == StateOpen,
		Err:       m.lastErr,
	}
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.log.WithFields(logrus.Fields{
		"from":    m.state.String(),
		"to":      s.String(),
		"attempt": m.attempt,
	}).Debug("channel state changed")
	m.state = s
	if m.cfg.OnStatus != nil {
		m.cfg.OnStatus(m.statusLocked())
	}
}

// connectLocked starts a dial in the background. A URL that cannot be
// built counts as an immediate failure.
func (m *Manager) connectLocked() {
	url, err := SocketURL(m.cfg.BaseURL, m.token)
	if err != nil {
		m.lastErr = err
		m.log.WithError(err).Warn("cannot build socket url")
		m.scheduleReconnectLocked()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.dialCancel = cancel
	m.dialSeq++
	seq := m.dialSeq
	m.setStateLocked(StateConnecting)

	go m.dial(ctx, seq, url)
}

func (m *Manager) dial(ctx context.Context, seq uint64, url string) {
	conn, err := m.cfg.Dialer.Dial(ctx, url)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Stopped or superseded while dialing.
	if seq != m.dialSeq || m.state != StateConnecting {
		if conn != nil {
			conn.Close()
		}
		return
	}
	if m.dialCancel != nil {
		m.dialCancel()
		m.dialCancel = nil
	}

	if err != nil {
		m.lastErr = err
		m.log.WithError(err).Debug("dial failed")
		m.scheduleReconnectLocked()
		return
	}

	m.conn = conn
	m.attempt = 0
	m.lastErr = nil
	m.setStateLocked(StateOpen)
	m.log.Info("notification channel open")
	m.startHeartbeatLocked(conn)

	go m.readLoop(conn)
}

func (m *Manager) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(conn, err)
			return
		}
		if !m.deliver(conn, data) {
			return
		}
	}
}

// deliver hands data to OnMessage while conn is still current. The check
// and the callback share the lock, so once Stop or a reconnect replaces
// conn none of its frames are delivered.
func (m *Manager) deliver(conn Conn, data []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != conn {
		return false
	}
	if m.cfg.OnMessage != nil {
		m.cfg.OnMessage(data)
	}
	return true
}

// handleClose runs for every close/error event. Events from a connection
// that is no longer current are ignored, so repeated closes schedule at
// most one reconnect.
func (m *Manager) handleClose(conn Conn, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != conn {
		return
	}
	m.conn = nil
	conn.Close()
	m.stopHeartbeatLocked()
	m.lastErr = err

	entry := m.log.WithError(err)
	if ce, ok := err.(*websocket.CloseError); ok {
		entry = entry.WithFields(logrus.Fields{"code": ce.Code, "reason": ce.Text})
	}
	entry.Info("notification channel closed")

	m.setStateLocked(StateClosed)
	if m.token == "" {
		m.setStateLocked(StateIdle)
		return
	}
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the single reconnect timer. It is a no-op
// while one is pending.
func (m *Manager) scheduleReconnectLocked() {
	if m.reconnect != nil {
		return
	}
	if m.cfg.MaxAttempts > 0 && m.attempt >= m.cfg.MaxAttempts {
		m.log.WithField("attempts", m.attempt).Warn("giving up on notification channel")
		m.setStateLocked(StateGaveUp)
		return
	}

	m.attempt++
	delay := m.cfg.Backoff.Delay(m.attempt)
	m.reconnectSeq++
	seq := m.reconnectSeq

	m.log.WithFields(logrus.Fields{
		"attempt": m.attempt,
		"delay":   delay.String(),
	}).Debug("reconnect scheduled")

	m.reconnect = m.cfg.Clock.AfterFunc(delay, func() {
		m.fireReconnect(seq)
	})
	m.setStateLocked(StateReconnectScheduled)
}

func (m *Manager) fireReconnect(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.reconnectSeq || m.reconnect == nil {
		return
	}
	m.reconnect = nil

	if m.token == "" {
		m.setStateLocked(StateIdle)
		return
	}
	m.connectLocked()
}

func (m *Manager) startHeartbeatLocked(conn Conn) {
	m.stopHeartbeatLocked()

	stop := make(chan struct{})
	m.heartbeatStop = stop
	ticker := m.cfg.Clock.NewTicker(m.cfg.Heartbeat)
	log := m.log

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				// A dead connection surfaces through the read loop.
				if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
					log.WithError(err).Debug("heartbeat ping failed")
				}
			}
		}
	}()
}

func (m *Manager) stopHeartbeatLocked() {
	if m.heartbeatStop != nil {
		close(m.heartbeatStop)
		m.heartbeatStop = nil
	}
}

// teardownLocked releases every resource the manager owns.
func (m *Manager) teardownLocked() {
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	m.reconnectSeq++

	if m.dialCancel != nil {
		m.dialCancel()
		m.dialCancel = nil
	}
	m.dialSeq++

	m.stopHeartbeatLocked()

	if m.conn != nil {
		conn := m.conn
		m.conn = nil
		if err := conn.Close(); err != nil {
			m.log.WithError(err).Debug("closing socket")
		}
	}
}
