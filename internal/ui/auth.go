package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chirp/internal/feed"
)

func (m Model) renderLogin() string {
	hint := "enter sign in  ctrl+s sign up  ctrl+r forgot password  esc browse as guest"
	if m.busy[feed.ActionLogin] {
		hint = "signing in..."
	}
	return m.renderAuthPanel("Sign in", hint)
}

func (m Model) renderSignup() string {
	hint := "enter create account  esc back"
	if m.busy[feed.ActionRegister] {
		hint = "creating account..."
	}
	return m.renderAuthPanel("Create account", hint)
}

func (m Model) renderRecover() string {
	hint := "enter send recovery email  esc back"
	if m.busy[feed.ActionRecover] {
		hint = "sending..."
	}
	return m.renderAuthPanel("Recover password", hint)
}

func (m Model) renderAuthPanel(title, hint string) string {
	var b strings.Builder
	b.WriteString(m.styles.Logo.Render(" chirp "))
	b.WriteString("\n\n")
	b.WriteString(m.styles.AccentText.Render(title))
	b.WriteString("\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if inline := m.renderToast(); inline != "" {
		b.WriteString(inline)
		b.WriteString("\n")
	}
	b.WriteString(m.styles.MutedText.Render(hint))

	panel := m.styles.FocusPanel.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
	}
	return panel
}
