package sync

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/source"
)

func TestPoller_InitialAndManualRefresh(t *testing.T) {
	src := new(MockSource)
	src.On("ListByUser", mock.Anything, int64(5)).
		Return([]model.Notification{note(1, false), note(2, true)}, nil).Once()
	src.On("ListByUser", mock.Anything, int64(5)).
		Return([]model.Notification{note(3, false), note(1, false), note(2, true)}, nil).Once()

	s := newTestSyncer(t, src, nil)
	s.Start("", 5)

	p := NewPoller(s, 0)
	defer p.Stop()

	cmd := p.Start()
	require.NotNil(t, cmd)
	assert.Nil(t, p.Start(), "second Start must be a no-op")

	msg, ok := cmd().(SyncResultMsg)
	require.True(t, ok)
	require.NoError(t, msg.Error)
	assert.Equal(t, 2, msg.Count)
	assert.Equal(t, 1, msg.Unread)
	assert.Equal(t, SyncIdle, p.Status().State)
	assert.False(t, p.Status().LastSync.IsZero())

	p.RefreshNow()
	msg, ok = p.WaitForNextResult()().(SyncResultMsg)
	require.True(t, ok)
	assert.Equal(t, 3, msg.Count)
	assert.Equal(t, 2, msg.Unread)

	src.AssertExpectations(t)
}

func TestPoller_AuthError(t *testing.T) {
	src := new(MockSource)
	src.On("ListByUser", mock.Anything, int64(5)).
		Return(nil, &source.AuthError{StatusCode: 401, Message: "expired"})

	s := newTestSyncer(t, src, nil)
	s.Start("", 5)

	p := NewPoller(s, 0)
	defer p.Stop()

	msg, ok := p.Start()().(SyncResultMsg)
	require.True(t, ok)
	require.Error(t, msg.Error)
	require.NotNil(t, msg.AuthError)
	assert.Contains(t, msg.AuthError.Message, "sign in")
	assert.Equal(t, SyncError, p.Status().State)
}

func TestPoller_PlainError(t *testing.T) {
	src := new(MockSource)
	src.On("ListByUser", mock.Anything, int64(5)).Return(nil, errors.New("connection refused"))

	s := newTestSyncer(t, src, nil)
	s.Start("", 5)

	p := NewPoller(s, 0)
	defer p.Stop()

	msg, ok := p.Start()().(SyncResultMsg)
	require.True(t, ok)
	assert.EqualError(t, msg.Error, "refreshing notifications: connection refused")
	assert.Nil(t, msg.AuthError)
}

func TestPoller_PeriodicRefresh(t *testing.T) {
	var calls atomic.Int32

	src := new(MockSource)
	src.On("ListByUser", mock.Anything, int64(5)).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return([]model.Notification{note(1, false)}, nil)

	s := newTestSyncer(t, src, nil)
	s.Start("", 5)

	p := NewPoller(s, 10*time.Millisecond)
	p.Start()
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestPoller_Restart(t *testing.T) {
	src := new(MockSource)
	src.On("ListByUser", mock.Anything, int64(5)).
		Return([]model.Notification{note(1, false)}, nil)

	s := newTestSyncer(t, src, nil)
	s.Start("", 5)

	p := NewPoller(s, 0)
	_, ok := p.Start()().(SyncResultMsg)
	require.True(t, ok)
	p.Stop()

	cmd := p.Start()
	require.NotNil(t, cmd)
	defer p.Stop()
	_, ok = cmd().(SyncResultMsg)
	assert.True(t, ok)
}

func TestWaitForChange(t *testing.T) {
	s := newTestSyncer(t, new(MockSource), nil)
	s.Start("", 5)

	msg, ok := WaitForChange(s)().(ChangeMsg)
	require.True(t, ok)
	assert.Equal(t, 0, msg.View.Unread)
}

func TestPoller_WaitEndsOnStop(t *testing.T) {
	src := new(MockSource)
	src.On("ListByUser", mock.Anything, int64(5)).
		Return([]model.Notification{note(1, false)}, nil)

	s := newTestSyncer(t, src, nil)
	s.Start("", 5)

	p := NewPoller(s, 0)
	_, ok := p.Start()().(SyncResultMsg)
	require.True(t, ok)

	wait := p.WaitForNextResult()
	done := make(chan tea.Msg, 1)
	go func() { done <- wait() }()

	p.Stop()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("wait still blocked after Stop")
	}
}
