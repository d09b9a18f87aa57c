package store

import (
	"context"
	"time"

	"github.com/nhle/citas-notify/internal/model"
)

// SnapshotInfo describes the cached snapshot of one user.
type SnapshotInfo struct {
	ID      string
	UserID  int64
	Count   int
	Unread  int
	SavedAt time.Time
}

// Store defines the local persistence of notification snapshots. The
// backend stays the source of truth; the store only lets the client
// start with the last list it saw.
type Store interface {
	// SaveSnapshot replaces the cached list of userID, keeping order.
	SaveSnapshot(ctx context.Context, userID int64, items []model.Notification) error

	// LoadSnapshot returns the cached list of userID in server order.
	// A user without a snapshot yields an empty list.
	LoadSnapshot(ctx context.Context, userID int64) ([]model.Notification, error)

	// ClearSnapshot drops everything cached for userID.
	ClearSnapshot(ctx context.Context, userID int64) error

	// SnapshotInfo returns metadata of the cached snapshot, or nil when
	// none exists.
	SnapshotInfo(ctx context.Context, userID int64) (*SnapshotInfo, error)
}
