package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpEntries = []struct {
	key  string
	desc string
}{
	{"j / k", "move between posts"},
	{"g / G", "jump to newest / oldest"},
	{"r", "refresh the feed"},
	{"n", "write a new post"},
	{"e", "edit the selected post"},
	{"d", "delete the selected post"},
	{"l", "like / unlike"},
	{"f", "follow / unfollow the author"},
	{"c", "comment on the selected post"},
	{"p", "edit your profile"},
	{"T", "cycle the color theme"},
	{"o", "sign out"},
	{"q / ctrl+c", "quit"},
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.AccentText.Render("Keys"))
	b.WriteString("\n")
	for _, e := range helpEntries {
		b.WriteString(m.styles.Text.Render(padRight(e.key, 12)))
		b.WriteString(m.styles.MutedText.Render(e.desc))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.MutedText.Render("press any key to close"))

	panel := m.styles.Panel.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
	}
	return panel
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}
