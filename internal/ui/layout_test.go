package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/citas-notify/internal/channel"
)

func TestTitle(t *testing.T) {
	assert.Equal(t, "Notificaciones", Title(0))
	assert.Equal(t, "Notificaciones [3 new]", Title(3))
}

func TestConnectionLabel(t *testing.T) {
	tests := []struct {
		name   string
		status channel.Status
		want   string
	}{
		{"idle", channel.Status{State: channel.StateIdle}, "offline"},
		{"first dial", channel.Status{State: channel.StateConnecting}, "connecting"},
		{"redial", channel.Status{State: channel.StateConnecting, Attempt: 2}, "reconnecting"},
		{"open", channel.Status{State: channel.StateOpen, Connected: true}, "live"},
		{"closed", channel.Status{State: channel.StateClosed, Err: errors.New("eof")}, "reconnecting"},
		{"waiting", channel.Status{State: channel.StateReconnectScheduled, Attempt: 1}, "reconnecting"},
		{"gave up", channel.Status{State: channel.StateGaveUp, Attempt: 5}, "offline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConnectionLabel(tt.status))
		})
	}
}

func TestLayoutContentHeight(t *testing.T) {
	l := NewLayout(80, 24)
	assert.Equal(t, 22, l.ContentHeight())
	assert.Equal(t, 80, l.ContentWidth())
}
