package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chirp/internal/prefs"
)

const toastDuration = 3 * time.Second

type toastLevel int

const (
	toastNone toastLevel = iota
	toastSuccess
	toastError
)

type toast struct {
	level   toastLevel
	message string
	expires time.Time
}

// withToast sets a transient notification and schedules its removal.
func (m Model) withToast(level toastLevel, message string) (tea.Model, tea.Cmd) {
	m.toast = toast{
		level:   level,
		message: message,
		expires: time.Now().Add(toastDuration),
	}
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastClearMsg{}
	})
}

// renderToast formats the current toast, or returns "" when none is active.
func (m Model) renderToast() string {
	if m.toast.level == toastNone || m.toast.message == "" {
		return ""
	}
	text := truncate(m.toast.message, maxInt(20, m.width-4))
	switch m.toast.level {
	case toastError:
		return m.styles.DangerText.Render(text)
	default:
		return m.styles.SuccessText.Render(text)
	}
}

// toastBarLine returns the toast line for the status bar placement, or ""
// when the toast is inline or absent.
func (m Model) toastBarLine() string {
	if m.prefs.ToastStyle != prefs.ToastBar {
		return ""
	}
	return m.renderToast()
}

// toastInlineLine returns the toast line for the inline placement.
func (m Model) toastInlineLine() string {
	if m.prefs.ToastStyle != prefs.ToastInline {
		return ""
	}
	return m.renderToast()
}
