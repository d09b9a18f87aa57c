package notifications

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/citas-notify/internal/keys"
	"github.com/nhle/citas-notify/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sample() []model.Notification {
	return []model.Notification{
		{ID: 3, Title: "Cita confirmada", CreatedAt: "2025-03-04T10:30:00Z"},
		{ID: 2, Title: "Recordatorio", Read: true, CreatedAt: "2025-03-03T09:00:00Z"},
		{ID: 1, Title: "Bienvenida", Read: true},
	}
}

func TestEmptyState(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 10)
	assert.Contains(t, m.View(), EmptyText)

	_, ok := m.SelectedID()
	assert.False(t, ok)
}

func TestMarkReadEmitsMessage(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 20)
	m.SetItems(sample())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, MarkReadMsg{ID: 3}, cmd())
}

func TestMarkReadIgnoresReadRows(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 20)
	m.SetItems(sample())

	m, _ = m.Update(runes("j"))
	id, _ := m.SelectedID()
	require.Equal(t, int64(2), id)

	_, cmd := m.Update(runes("m"))
	assert.Nil(t, cmd)
}

func TestDeleteEmitsMessage(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 20)
	m.SetItems(sample())

	_, cmd := m.Update(runes("d"))
	require.NotNil(t, cmd)
	assert.Equal(t, DeleteMsg{ID: 3}, cmd())
}

func TestSetItemsKeepsCursorOnSameNotification(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 20)
	m.SetItems(sample())
	m, _ = m.Update(runes("j"))

	// A pushed notification lands on top.
	items := append([]model.Notification{{ID: 4, Title: "Nueva"}}, sample()...)
	m.SetItems(items)

	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, int64(2), id)
	assert.Equal(t, 4, m.Len())
}

func TestSetItemsClampsCursorAfterRemoval(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 20)
	m.SetItems(sample())
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))

	m.SetItems(sample()[:2])

	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestItemDescription(t *testing.T) {
	it := Item{Notification: model.Notification{
		Title:       "x",
		Description: "  Mañana a las 10  ",
		CreatedAt:   "not a date",
	}}
	assert.Equal(t, "not a date | Mañana a las 10", it.Description())

	assert.Empty(t, Item{}.Description())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hola", truncate("hola", 10))
	assert.Equal(t, "ho…", truncate("hola", 3))
	assert.Equal(t, "hola", truncate("hola", 0))
}

func TestOpenEmitsMessage(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 20)
	m.SetItems(sample())

	_, cmd := m.Update(runes("o"))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenMsg{ID: 3}, cmd())

	n, ok := m.Find(2)
	require.True(t, ok)
	assert.Equal(t, "Recordatorio", n.Title)
	_, ok = m.Find(99)
	assert.False(t, ok)
}
