package channel

import (
	"fmt"
	"net/url"
	"strings"
)

// NotificationsPath is the websocket endpoint on the backend.
const NotificationsPath = "/ws/notifications"

// SocketBase derives the websocket base URL. An explicit override wins;
// otherwise the REST base has its scheme upgraded (http→ws, https→wss).
// A base without a scheme is treated as a plain host.
func SocketBase(apiBase, override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}

	base := strings.TrimRight(apiBase, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	case strings.HasPrefix(base, "ws://"), strings.HasPrefix(base, "wss://"):
		return base
	case base == "":
		return "ws://localhost:8000"
	default:
		return "ws://" + base
	}
}

// SocketURL builds the full notifications URL carrying token as a query
// parameter.
func SocketURL(base, token string) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}

	u, err := url.Parse(base + NotificationsPath)
	if err != nil {
		return "", fmt.Errorf("parsing socket url %q: %w", base, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("socket url %q: unsupported scheme %q", base, u.Scheme)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
