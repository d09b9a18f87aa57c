package model

import (
	"strings"
	"time"
)

// Notification represents a single message delivered to a user by the
// scheduling backend.
type Notification struct {
	// ID is the backend-assigned identifier. It never changes.
	ID int64 `json:"id_notificacion"`

	// Title is the short headline shown in lists.
	Title string `json:"titulo"`

	// Description is the optional body text.
	Description string `json:"descripcion,omitempty"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"leida"`

	// CreatedAt is the creation timestamp exactly as the backend sent it.
	CreatedAt string `json:"fecha_creacion"`

	// StudentID and PsychologistID are routing fields used by the backend.
	StudentID      *int64 `json:"id_estudiante,omitempty"`
	PsychologistID *int64 `json:"id_psicologo,omitempty"`
}

// naiveLayouts are accepted when the backend omits the zone offset.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// CreatedTime parses CreatedAt. Timestamps without an offset are read as
// UTC. Unparsable values return the zero time.
func (n Notification) CreatedTime() time.Time {
	raw := strings.TrimSpace(n.CreatedAt)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CountUnread returns the number of notifications with Read=false.
func CountUnread(items []Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
