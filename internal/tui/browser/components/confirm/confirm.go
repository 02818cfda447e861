// Package confirm is a yes/no dialog for the browser.
package confirm

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Messages ---

// ConfirmedMsg is sent when the user confirms. Payload is the value the
// dialog was activated with.
type ConfirmedMsg struct {
	Payload any
}

// CancelledMsg is sent when the user cancels the action.
type CancelledMsg struct {
	Payload any
}

// --- Model ---

// Model represents a confirmation dialog.
type Model struct {
	Active      bool
	Prompt      string
	BorderColor lipgloss.TerminalColor
	payload     any
	keys        keyMap
}

// New creates a new confirmation dialog model.
func New() Model {
	return Model{
		BorderColor: lipgloss.AdaptiveColor{Light: "#D75F00", Dark: "#FFAF5F"},
		keys:        defaultKeyMap,
	}
}

// Activate shows the dialog with prompt. payload is handed back in the
// answer message.
func (m *Model) Activate(prompt string, payload any) {
	m.Prompt = prompt
	m.payload = payload
	m.Active = true
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.Active {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		payload := m.payload
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.Active, m.payload = false, nil
			return m, func() tea.Msg { return ConfirmedMsg{Payload: payload} }
		case key.Matches(msg, m.keys.Cancel):
			m.Active, m.payload = false, nil
			return m, func() tea.Msg { return CancelledMsg{Payload: payload} }
		}
	}

	return m, nil
}

// --- View ---

func (m Model) View() string {
	if !m.Active {
		return ""
	}

	dialogBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.BorderColor).
		Padding(1, 2).
		Render(m.Prompt)

	helpText := lipgloss.NewStyle().
		Faint(true).
		Width(lipgloss.Width(dialogBox)).
		Align(lipgloss.Center).
		Render("\n(y/n)")

	return lipgloss.JoinVertical(lipgloss.Left, dialogBox, helpText)
}

// --- KeyMap ---

type keyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

var defaultKeyMap = keyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}
