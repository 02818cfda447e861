package confirm

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmCarriesPayload(t *testing.T) {
	m := New()
	m.Activate("Publish all?", 7)
	assert.Contains(t, m.View(), "Publish all?")

	m, cmd := m.Update(keyMsg("y"))
	require.NotNil(t, cmd)
	assert.False(t, m.Active)
	assert.Equal(t, ConfirmedMsg{Payload: 7}, cmd())
	assert.Empty(t, m.View())
}

func TestCancel(t *testing.T) {
	m := New()
	m.Activate("Unpublish all?", "x")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.False(t, m.Active)
	assert.Equal(t, CancelledMsg{Payload: "x"}, cmd())
}

func TestInactiveIgnoresKeys(t *testing.T) {
	m := New()
	_, cmd := m.Update(keyMsg("y"))
	assert.Nil(t, cmd)

	m.Activate("?", nil)
	m, cmd = m.Update(keyMsg("q"))
	assert.Nil(t, cmd)
	assert.True(t, m.Active)
}
