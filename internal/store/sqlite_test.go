package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/store"
	"github.com/nhle/citas-notify/tests/testutil"
)

func ptr(v int64) *int64 { return &v }

func sample() []model.Notification {
	return []model.Notification{
		{ID: 3, Title: "Nueva cita", Description: "Lunes 10:00", CreatedAt: "2024-05-03T10:00:00", StudentID: ptr(12)},
		{ID: 1, Title: "Cita cancelada", Read: true, CreatedAt: "2024-05-01T08:30:00", PsychologistID: ptr(4)},
		{ID: 2, Title: "Recordatorio", CreatedAt: "2024-05-02T09:15:00"},
	}
}

func TestSQLiteStore_SnapshotRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, 7, sample()))

	got, err := s.LoadSnapshot(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestSQLiteStore_SaveReplacesPreviousSnapshot(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, 7, sample()))
	require.NoError(t, s.SaveSnapshot(ctx, 7, sample()[1:]))

	got, err := s.LoadSnapshot(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestSQLiteStore_UsersAreIsolated(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, 7, sample()))
	require.NoError(t, s.SaveSnapshot(ctx, 8, sample()[:1]))

	seven, err := s.LoadSnapshot(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, seven, 3)

	eight, err := s.LoadSnapshot(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, eight, 1)

	none, err := s.LoadSnapshot(ctx, 9)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLiteStore_SnapshotInfoAndClear(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	info, err := s.SnapshotInfo(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, info)

	require.NoError(t, s.SaveSnapshot(ctx, 7, sample()))
	info, err = s.SnapshotInfo(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, int64(7), info.UserID)
	assert.Equal(t, 3, info.Count)
	assert.Equal(t, 2, info.Unread)
	assert.NotEmpty(t, info.ID)
	assert.False(t, info.SavedAt.IsZero())

	require.NoError(t, s.SaveSnapshot(ctx, 7, nil))
	info, err = s.SnapshotInfo(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 0, info.Count)

	require.NoError(t, s.ClearSnapshot(ctx, 7))
	info, err = s.SnapshotInfo(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.SaveSnapshot(ctx, 7, sample()))
	require.NoError(t, first.Close())

	second, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.LoadSnapshot(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}
