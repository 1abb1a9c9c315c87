package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"chirp/internal/feed"
)

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 48
	return ti
}

func newPasswordInput(placeholder string) textinput.Model {
	ti := newInput(placeholder, 128)
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	return ti
}

func newLoginInputs() []textinput.Model {
	email := newInput("Email", 254)
	email.Focus()
	return []textinput.Model{email, newPasswordInput("Password")}
}

func newSignupInputs() []textinput.Model {
	name := newInput("Name", 80)
	name.Focus()
	return []textinput.Model{name, newInput("Email", 254), newPasswordInput("Password")}
}

func newRecoverInputs() []textinput.Model {
	email := newInput("Email", 254)
	email.Focus()
	return []textinput.Model{email}
}

func newComposeInputs(placeholder, initial string) []textinput.Model {
	ti := newInput(placeholder, feed.MaxPostLength)
	ti.Width = 64
	ti.SetValue(initial)
	ti.CursorEnd()
	ti.Focus()
	return []textinput.Model{ti}
}

func newProfileInputs(name, email string) []textinput.Model {
	nameInput := newInput("Name", 80)
	nameInput.SetValue(name)
	nameInput.CursorEnd()
	nameInput.Focus()
	emailInput := newInput("Email", 254)
	emailInput.SetValue(email)
	return []textinput.Model{nameInput, emailInput}
}

func (m *Model) cycleFocus(delta int) {
	if len(m.inputs) == 0 {
		return
	}
	m.inputs[m.focusIdx].Blur()
	m.focusIdx = (m.focusIdx + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focusIdx].Focus()
}

func (m Model) inputValue(idx int) string {
	if idx < 0 || idx >= len(m.inputs) {
		return ""
	}
	return strings.TrimSpace(m.inputs[idx].Value())
}

func (m Model) updateFocusedInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}
