package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotification_CreatedTime(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-05-01T10:30:00", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-05-01T10:30:00.123456", time.Date(2024, 5, 1, 10, 30, 0, 123456000, time.UTC)},
		{"2024-05-01 10:30:00", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-05-01T10:30:00Z", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"ayer", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Notification{CreatedAt: tt.raw}.CreatedTime()
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	offset := Notification{CreatedAt: "2024-05-01T10:30:00-05:00"}.CreatedTime()
	assert.True(t, time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC).Equal(offset))
}

func TestNotification_JSONFieldNames(t *testing.T) {
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{
		"id_notificacion": 3,
		"titulo": "Nueva cita",
		"leida": true,
		"fecha_creacion": "2024-05-01T10:30:00",
		"id_psicologo": 8
	}`), &n))

	assert.Equal(t, int64(3), n.ID)
	assert.Equal(t, "Nueva cita", n.Title)
	assert.True(t, n.Read)
	assert.Empty(t, n.Description)
	assert.Nil(t, n.StudentID)
	require.NotNil(t, n.PsychologistID)
	assert.Equal(t, int64(8), *n.PsychologistID)
}

func TestCountUnread(t *testing.T) {
	assert.Equal(t, 0, CountUnread(nil))
	assert.Equal(t, 2, CountUnread([]Notification{{ID: 1}, {ID: 2, Read: true}, {ID: 3}}))
}
