package channel

import (
	"errors"
	"fmt"
)

// ErrNoToken is returned when a connection is requested without a session token.
var ErrNoToken = errors.New("channel: no session token")

// HandshakeError reports a rejected websocket upgrade.
type HandshakeError struct {
	StatusCode int
	Err        error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("websocket handshake failed (%d): %v", e.StatusCode, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}
