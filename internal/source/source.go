package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/citas-notify/internal/model"
)

// AuthError indicates that the backend rejected the session token.
// It is returned by clients when a 401 or 403 response is received.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"unexpected status %d on %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Body,
	)
}

// NotificationSource is the REST contract consumed by the synchronizer.
type NotificationSource interface {
	// ListByUser returns the user's notifications in server order.
	ListByUser(ctx context.Context, userID int64) ([]model.Notification, error)

	// MarkRead flags one notification as read and returns the updated row.
	MarkRead(ctx context.Context, id int64) (*model.Notification, error)

	// Delete removes one notification.
	Delete(ctx context.Context, id int64) error

	// ClearUser removes every notification of the user.
	ClearUser(ctx context.Context, userID int64) error
}
