package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketBase(t *testing.T) {
	tests := []struct {
		name     string
		apiBase  string
		override string
		want     string
	}{
		{"http upgrades to ws", "http://localhost:8000", "", "ws://localhost:8000"},
		{"https upgrades to wss", "https://api.citas.example/", "", "wss://api.citas.example"},
		{"override wins", "https://api.citas.example", "wss://push.citas.example/", "wss://push.citas.example"},
		{"bare host", "api.citas.example:8000", "", "ws://api.citas.example:8000"},
		{"already ws", "ws://localhost:9000", "", "ws://localhost:9000"},
		{"empty base", "", "", "ws://localhost:8000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SocketBase(tt.apiBase, tt.override))
		})
	}
}

func TestSocketURL(t *testing.T) {
	got, err := SocketURL("wss://api.citas.example", "a b+c")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.citas.example/ws/notifications?token=a+b%2Bc", got)

	_, err = SocketURL("ws://localhost:8000", "")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = SocketURL("http://localhost:8000", "tok")
	assert.Error(t, err)
}
