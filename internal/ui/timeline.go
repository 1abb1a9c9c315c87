package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"chirp/internal/api"
	"chirp/internal/feed"
)

const (
	sidebarWidth   = 26
	maxSuggestions = 6
	maxComments    = 3
)

func (m Model) renderTimeline() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.mode != modeBrowse {
		b.WriteString(m.renderForm())
		b.WriteString("\n")
	}
	if inline := m.toastInlineLine(); inline != "" {
		b.WriteString(inline)
		b.WriteString("\n")
	}

	feedWidth := m.width
	showSidebar := m.prefs.ShowSuggestions && m.width > sidebarWidth+40
	if showSidebar {
		feedWidth = m.width - sidebarWidth - 2
	}

	feedView := m.renderFeed(feedWidth)
	if showSidebar {
		feedView = lipgloss.JoinHorizontal(lipgloss.Top, feedView, "  ", m.renderSuggestions())
	}
	b.WriteString(feedView)
	b.WriteString("\n")

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	logo := m.styles.Logo.Render(" chirp ")

	identity := "guest"
	if m.sess.Authenticated() {
		identity = m.sess.UserName + " <" + m.sess.UserEmail + ">"
	}

	status := ""
	switch {
	case m.snapshot.LastError != nil:
		status = m.styles.WarningText.Render("offline, showing last known feed")
	case !m.snapshot.LastUpdated.IsZero():
		status = m.styles.MutedText.Render("updated " + relativeTime(m.snapshot.LastUpdated, time.Now()) + " ago")
	}

	line := logo + " " + m.styles.Text.Render(identity)
	if status != "" {
		line += "  " + status
	}
	return m.styles.Header.Render(line)
}

func (m Model) renderForm() string {
	title := ""
	switch m.mode {
	case modeCompose:
		title = "New post"
	case modeEdit:
		title = "Edit post"
	case modeComment:
		title = "Comment"
	case modeProfile:
		title = "Profile"
	}

	var b strings.Builder
	b.WriteString(m.styles.AccentText.Render(title))
	b.WriteString("\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if m.mode == modeCompose || m.mode == modeEdit {
		remaining := feed.MaxPostLength - len([]rune(m.inputValue(0)))
		style := m.styles.MutedText
		if remaining < 0 {
			style = m.styles.DangerText
		}
		b.WriteString(style.Render(fmt.Sprintf("%d characters left", remaining)))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.MutedText.Render("enter save  esc cancel"))
	return m.styles.FocusPanel.Render(b.String())
}

func (m Model) renderFeed(width int) string {
	posts := m.snapshot.Posts
	if len(posts) == 0 {
		if m.snapshot.LastError != nil {
			return m.styles.MutedText.Render("Nothing cached yet. Press r to retry.")
		}
		return m.styles.MutedText.Render("No posts yet. Press n to write the first one.")
	}

	available := m.height - 6
	if m.mode != modeBrowse {
		available -= 6
	}
	available = maxInt(available, 4)

	start := maxInt(0, m.selectedRow-2)
	var lines []string
	for i := start; i < len(posts) && len(lines) < available; i++ {
		lines = append(lines, m.renderPost(posts[i], i == m.selectedRow, width)...)
	}
	if len(lines) > available {
		lines = lines[:available]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPost(post api.Post, selected bool, width int) []string {
	textWidth := maxInt(20, width-4)
	now := time.Now()

	author := post.OwnerName()
	head := m.styles.AccentText.Render(author)
	ownerID := post.OwnerID
	if ownerID == 0 && post.Owner != nil {
		ownerID = post.Owner.ID
	}
	if m.sess.Authenticated() && ownerID == m.sess.UserID {
		head += m.styles.MutedText.Render(" (you)")
	} else if m.snapshot.Follows[ownerID] {
		head += m.styles.SuccessText.Render(" following")
	}
	if age := relativeTime(post.ParsedCreatedAt(), now); age != "" {
		head += m.styles.MutedText.Render(" · " + age)
	}

	lines := []string{head}
	for _, l := range wrapText(post.Content, textWidth) {
		lines = append(lines, m.styles.Text.Render(l))
	}

	meta := heart(m.snapshot.Liked[post.ID]) + fmt.Sprintf(" %d", m.snapshot.LikeCounts[post.ID])
	comments := m.snapshot.Comments[post.ID]
	if len(comments) > 0 {
		meta += fmt.Sprintf("  %d comments", len(comments))
	}
	lines = append(lines, m.styles.MutedText.Render(meta))

	if selected && m.prefs.ShowComments && len(comments) > 0 {
		shown := comments
		if len(shown) > maxComments {
			shown = shown[len(shown)-maxComments:]
		}
		for _, c := range shown {
			line := "  " + c.Author + ": " + c.Text
			lines = append(lines, m.styles.MutedText.Render(truncate(line, textWidth)))
		}
	}

	if selected {
		for i := range lines {
			lines[i] = m.styles.Selected.Render("┃ ") + lines[i]
		}
	} else {
		for i := range lines {
			lines[i] = "  " + lines[i]
		}
	}
	return append(lines, "")
}

func heart(liked bool) string {
	if liked {
		return "♥"
	}
	return "♡"
}

func (m Model) renderSuggestions() string {
	suggestions := m.cache.Suggestions(m.sess.UserID)
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	var b strings.Builder
	b.WriteString(m.styles.AccentText.Render("Who to follow"))
	if len(suggestions) == 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.MutedText.Render("nobody around"))
	}
	for _, s := range suggestions {
		b.WriteString("\n")
		name := truncate(s.Name, sidebarWidth-6)
		if m.snapshot.Follows[s.ID] {
			b.WriteString(m.styles.SuccessText.Render("✓ " + name))
		} else {
			b.WriteString(m.styles.Text.Render("  " + name))
		}
	}
	return m.styles.Panel.Width(sidebarWidth).Render(b.String())
}

func (m Model) renderFooter() string {
	if bar := m.toastBarLine(); bar != "" {
		return m.styles.Footer.Render(bar)
	}
	hints := "j/k move  n post  l like  f follow  c comment  r refresh  ? help  q quit"
	if !m.sess.Authenticated() {
		hints = "j/k move  l like  f follow  r refresh  esc sign in  ? help  q quit"
	}
	return m.styles.Footer.Render(m.styles.MutedText.Render(truncate(hints, maxInt(10, m.width-2))))
}
