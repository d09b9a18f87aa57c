package sync

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nhle/citas-notify/internal/model"
)

// EventType is the discriminating "type" field of a push frame.
type EventType string

const (
	EventUnreadCount          EventType = "unread_count"
	EventNotificationNew      EventType = "notification_new"
	EventNotificationRead     EventType = "notification_read"
	EventNotificationDeleted  EventType = "notification_deleted"
	EventNotificationsCleared EventType = "notifications_cleared"
)

var (
	// ErrMalformedEvent is returned for frames that are not valid event JSON.
	ErrMalformedEvent = errors.New("malformed push event")

	// ErrUnknownEvent is returned for frames with an unrecognized type.
	ErrUnknownEvent = errors.New("unknown push event")
)

// Event is a decoded push frame. Only the fields relevant to Type are set.
type Event struct {
	Type         EventType
	Count        int
	ID           int64
	Notification model.Notification
}

type wireEvent struct {
	Type  EventType           `json:"type"`
	Count *int                `json:"count"`
	ID    *int64              `json:"id"`
	Data  *model.Notification `json:"data"`
}

// ParseEvent decodes one inbound text frame.
func ParseEvent(frame []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(frame, &w); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	ev := Event{Type: w.Type}
	switch w.Type {
	case EventUnreadCount:
		// A missing count reads as zero.
		if w.Count != nil {
			ev.Count = *w.Count
		}
	case EventNotificationNew:
		if w.Data == nil {
			return Event{}, fmt.Errorf("%w: %s without data", ErrMalformedEvent, w.Type)
		}
		ev.Notification = *w.Data
	case EventNotificationRead, EventNotificationDeleted:
		if w.ID == nil {
			return Event{}, fmt.Errorf("%w: %s without id", ErrMalformedEvent, w.Type)
		}
		ev.ID = *w.ID
	case EventNotificationsCleared:
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, w.Type)
	}

	return ev, nil
}
