package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Command
		wantErr bool
	}{
		{input: "refresh", want: Command{Verb: VerbRefresh}},
		{input: "  SYNC ", want: Command{Verb: VerbRefresh}},
		{input: "read", want: Command{Verb: VerbRead}},
		{input: "read 42", want: Command{Verb: VerbRead, ID: 42, HasID: true}},
		{input: "rm 7", want: Command{Verb: VerbDelete, ID: 7, HasID: true}},
		{input: "clear", want: Command{Verb: VerbClear}},
		{input: "signout", want: Command{Verb: VerbLogout}},
		{input: "theme mono", want: Command{Verb: VerbTheme, Arg: "mono"}},
		{input: "q", want: Command{Verb: VerbQuit}},
		{input: "", wantErr: true},
		{input: "read abc", wantErr: true},
		{input: "delete 0", wantErr: true},
		{input: "read 1 2", wantErr: true},
		{input: "clear now", wantErr: true},
		{input: "theme", wantErr: true},
		{input: "launch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnterEmitsParsedCommand(t *testing.T) {
	m := New(60, 10)
	for _, r := range "read 3" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Command: Command{Verb: VerbRead, ID: 3, HasID: true}}, cmd())
	assert.Empty(t, m.input.Value())
}

func TestEnterKeepsInvalidInput(t *testing.T) {
	m := New(60, 10)
	for _, r := range "fly" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "fly", m.input.Value())
	assert.Contains(t, m.View(), "unknown command")
}

func TestEscCancels(t *testing.T) {
	m := New(60, 10)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
}
