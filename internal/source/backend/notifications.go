package backend

import (
	"context"
	"fmt"

	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/source"
)

var _ source.NotificationSource = (*Client)(nil)

// ListByUser fetches GET /notifications/user/{userID}.
func (c *Client) ListByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	var items []model.Notification
	if err := c.Get(ctx, fmt.Sprintf("/notifications/user/%d", userID), &items); err != nil {
		return nil, fmt.Errorf("listing notifications for user %d: %w", userID, err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return items, nil
}

// MarkRead calls PATCH /notifications/{id}/read.
func (c *Client) MarkRead(ctx context.Context, id int64) (*model.Notification, error) {
	var updated model.Notification
	if err := c.Patch(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, &updated); err != nil {
		return nil, fmt.Errorf("marking notification %d as read: %w", id, err)
	}
	return &updated, nil
}

// Delete calls DELETE /notifications/{id}.
func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.del(ctx, fmt.Sprintf("/notifications/%d", id)); err != nil {
		return fmt.Errorf("deleting notification %d: %w", id, err)
	}
	return nil
}

// ClearUser calls DELETE /notifications/user/{userID}.
func (c *Client) ClearUser(ctx context.Context, userID int64) error {
	if err := c.del(ctx, fmt.Sprintf("/notifications/user/%d", userID)); err != nil {
		return fmt.Errorf("clearing notifications for user %d: %w", userID, err)
	}
	return nil
}

// BindToken returns a client authenticating with token.
func (c *Client) BindToken(token string) source.NotificationSource {
	return c.WithToken(token)
}
