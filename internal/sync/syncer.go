package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nhle/citas-notify/internal/channel"
	"github.com/nhle/citas-notify/internal/logging"
	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/source"
)

var (
	// ErrNoSession is returned by operations issued outside Start/Stop.
	ErrNoSession = errors.New("no active notification session")

	// ErrNoUser is returned when the session has no user id to query.
	ErrNoUser = errors.New("notification session has no user id")
)

// cacheTimeout bounds a cache write triggered by a push event.
const cacheTimeout = 5 * time.Second

// SnapshotCache persists the last known snapshot of a user.
type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, userID int64, items []model.Notification) error
	LoadSnapshot(ctx context.Context, userID int64) ([]model.Notification, error)
}

// TokenBinder is implemented by sources that authenticate per session.
type TokenBinder interface {
	BindToken(token string) source.NotificationSource
}

// View is a consistent read of everything a presentation layer renders.
type View struct {
	Items   []model.Notification
	Unread  int
	Channel channel.Status
}

// Options wires a Syncer. Source is required.
type Options struct {
	Source source.NotificationSource
	Cache  SnapshotCache

	// Channel configures the live channel. OnMessage and OnStatus are
	// overwritten by the Syncer.
	Channel channel.Config

	Logger logrus.FieldLogger
}

// Syncer keeps a local notification list in step with the backend. It
// loads snapshots, applies push events from the live channel and runs
// the mark-read/delete/clear commands.
type Syncer struct {
	src   source.NotificationSource
	cache SnapshotCache
	state *State
	ch    *channel.Manager
	log   logrus.FieldLogger

	mu      gosync.Mutex
	gen     uint64
	active  bool
	userID  int64
	session source.NotificationSource

	statusMu gosync.RWMutex
	status   channel.Status

	// persistMu orders cache writes so the last one holds the newest list.
	persistMu gosync.Mutex

	changes chan struct{}
}

// session is what an in-flight request captured when it was issued.
type session struct {
	gen    uint64
	userID int64
	src    source.NotificationSource
}

// New creates an idle Syncer.
func New(opts Options) *Syncer {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	s := &Syncer{
		src:     opts.Source,
		cache:   opts.Cache,
		state:   NewState(),
		log:     log.WithField("component", "sync"),
		changes: make(chan struct{}, 1),
	}

	chCfg := opts.Channel
	if chCfg.Logger == nil {
		chCfg.Logger = log
	}
	chCfg.OnMessage = s.handleFrame
	chCfg.OnStatus = s.handleStatus
	s.ch = channel.NewManager(chCfg)

	return s
}

// Start opens a session for userID. A non-empty token also starts the
// live channel; an empty token keeps the channel idle. Switching users
// drops the previous user's list.
func (s *Syncer) Start(token string, userID int64) {
	s.mu.Lock()
	switching := s.userID != 0 && s.userID != userID
	s.mu.Unlock()

	// Frames of the previous user's connection must not reach the new list.
	if switching {
		s.ch.Stop()
	}

	s.mu.Lock()
	s.gen++
	if s.userID != userID {
		s.state.Reset()
	}
	s.active = true
	s.userID = userID
	s.session = s.src
	if binder, ok := s.src.(TokenBinder); ok {
		s.session = binder.BindToken(token)
	}
	sessionID := uuid.NewString()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"session": sessionID,
		"user_id": userID,
		"live":    token != "",
	}).Info("notification session started")

	if token == "" {
		s.ch.Stop()
	} else if err := s.ch.Start(token); err != nil {
		s.log.WithError(err).Warn("live channel not started")
	}
	s.notify()
}

// Stop ends the session. The live channel is torn down synchronously and
// results of requests still in flight are discarded.
func (s *Syncer) Stop() {
	s.mu.Lock()
	s.gen++
	s.active = false
	s.mu.Unlock()

	s.ch.Stop()
	s.log.Info("notification session stopped")
	s.notify()
}

// Refresh loads the full list of the session user and replaces local
// state. It does not retry; on error local state is untouched.
func (s *Syncer) Refresh(ctx context.Context) error {
	sess, err := s.current(true)
	if err != nil {
		return err
	}

	items, err := sess.src.ListByUser(ctx, sess.userID)
	if err != nil {
		return fmt.Errorf("refreshing notifications: %w", err)
	}

	if !s.stillCurrent(sess) {
		return nil
	}
	s.state.Replace(items)
	s.notify()
	s.persist(ctx, sess)
	return nil
}

// Restore seeds the list from the snapshot cache until live data arrives.
func (s *Syncer) Restore(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	sess, err := s.current(true)
	if err != nil {
		return err
	}

	items, err := s.cache.LoadSnapshot(ctx, sess.userID)
	if err != nil {
		return fmt.Errorf("loading cached snapshot: %w", err)
	}
	if !s.stillCurrent(sess) {
		return nil
	}
	if s.state.Seed(items) {
		s.notify()
	}
	return nil
}

// MarkAsRead marks id as read on the backend, then locally.
func (s *Syncer) MarkAsRead(ctx context.Context, id int64) error {
	sess, err := s.current(false)
	if err != nil {
		return err
	}
	if _, err := sess.src.MarkRead(ctx, id); err != nil {
		return err
	}
	if s.stillCurrent(sess) && s.state.MarkRead(id) {
		s.notify()
		s.persist(ctx, sess)
	}
	return nil
}

// DeleteOne deletes id on the backend, then locally.
func (s *Syncer) DeleteOne(ctx context.Context, id int64) error {
	sess, err := s.current(false)
	if err != nil {
		return err
	}
	if err := sess.src.Delete(ctx, id); err != nil {
		return err
	}
	if s.stillCurrent(sess) && s.state.Remove(id) {
		s.notify()
		s.persist(ctx, sess)
	}
	return nil
}

// ClearAll deletes every notification of the session user.
func (s *Syncer) ClearAll(ctx context.Context) error {
	sess, err := s.current(true)
	if err != nil {
		return err
	}
	if err := sess.src.ClearUser(ctx, sess.userID); err != nil {
		return err
	}
	if s.stillCurrent(sess) && s.state.Clear() {
		s.notify()
	}
	s.persist(ctx, sess)
	return nil
}

// Notifications returns a copy of the local list.
func (s *Syncer) Notifications() []model.Notification {
	return s.state.Items()
}

// UnreadCount returns the local unread counter.
func (s *Syncer) UnreadCount() int {
	return s.state.Unread()
}

// Connected reports whether the live channel is open.
func (s *Syncer) Connected() bool {
	return s.ChannelStatus().Connected
}

// ChannelStatus returns the last reported live channel status.
func (s *Syncer) ChannelStatus() channel.Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// View returns the list, counter and channel status.
func (s *Syncer) View() View {
	items, unread := s.state.View()
	return View{Items: items, Unread: unread, Channel: s.ChannelStatus()}
}

// UserID returns the session user.
func (s *Syncer) UserID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Changes signals after any visible change. Signals coalesce; receivers
// should re-read View.
func (s *Syncer) Changes() <-chan struct{} {
	return s.changes
}

func (s *Syncer) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Syncer) current(needUser bool) (session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.session == nil {
		return session{}, ErrNoSession
	}
	if needUser && s.userID <= 0 {
		return session{}, ErrNoUser
	}
	return session{gen: s.gen, userID: s.userID, src: s.session}, nil
}

func (s *Syncer) stillCurrent(sess session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.gen == sess.gen
}

// persist writes the current list of sess to the snapshot cache. Cache
// failures are logged only.
func (s *Syncer) persist(ctx context.Context, sess session) {
	if s.cache == nil || sess.userID <= 0 {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if !s.stillCurrent(sess) {
		return
	}
	if err := s.cache.SaveSnapshot(ctx, sess.userID, s.state.Items()); err != nil {
		s.log.WithError(err).Warn("caching snapshot")
	}
}

// handleFrame reconciles one inbound frame. Anything unparsable is
// dropped; a later Refresh restores the truth. The channel manager calls
// it with its lock held, so Stop waits for a frame being applied.
func (s *Syncer) handleFrame(frame []byte) {
	sess, err := s.current(false)
	if err != nil {
		return
	}

	ev, err := ParseEvent(frame)
	if err != nil {
		s.log.WithError(err).Debug("dropping push frame")
		return
	}
	if !s.state.Apply(ev) {
		return
	}
	s.notify()

	if ev.Type != EventUnreadCount {
		ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()
		s.persist(ctx, sess)
	}
}

// handleStatus runs under the channel manager's lock.
func (s *Syncer) handleStatus(st channel.Status) {
	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()
	s.notify()
}
