package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"chirp/internal/api"
	"chirp/internal/feed"
	"chirp/internal/prefs"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		return m.handleLoginKey(msg)
	case ViewSignup:
		return m.handleSignupKey(msg)
	case ViewRecover:
		return m.handleRecoverKey(msg)
	default:
		return m.handleTimelineKey(msg)
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Browse the public feed without signing in.
		m.currentView = ViewTimeline
		m.inputs = nil
		return m, nil
	case "tab", "down":
		m.cycleFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.cycleFocus(-1)
		return m, nil
	case "ctrl+s":
		m.currentView = ViewSignup
		m.inputs = newSignupInputs()
		m.focusIdx = 0
		return m, nil
	case "ctrl+r":
		m.currentView = ViewRecover
		m.inputs = newRecoverInputs()
		m.focusIdx = 0
		return m, nil
	case "enter":
		if m.busy[feed.ActionLogin] {
			return m, nil
		}
		email := m.inputValue(0)
		password := m.inputValue(1)
		m.busy[feed.ActionLogin] = true
		return m, m.loginCmd(email, password)
	}
	return m.updateFocusedInput(msg)
}

func (m Model) handleSignupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.currentView = ViewLogin
		m.inputs = newLoginInputs()
		m.focusIdx = 0
		return m, nil
	case "tab", "down":
		m.cycleFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.cycleFocus(-1)
		return m, nil
	case "enter":
		if m.busy[feed.ActionRegister] {
			return m, nil
		}
		name := m.inputValue(0)
		email := m.inputValue(1)
		password := m.inputValue(2)
		m.busy[feed.ActionRegister] = true
		return m, m.registerCmd(name, email, password)
	}
	return m.updateFocusedInput(msg)
}

func (m Model) handleRecoverKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.currentView = ViewLogin
		m.inputs = newLoginInputs()
		m.focusIdx = 0
		return m, nil
	case "enter":
		if m.busy[feed.ActionRecover] {
			return m, nil
		}
		email := m.inputValue(0)
		m.busy[feed.ActionRecover] = true
		return m, m.recoverCmd(email)
	}
	return m.updateFocusedInput(msg)
}

func (m Model) handleTimelineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeBrowse {
		return m.handleTimelineFormKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "esc":
		if !m.sess.Authenticated() {
			m.currentView = ViewLogin
			m.inputs = newLoginInputs()
			m.focusIdx = 0
		}
		return m, nil

	case "j", "down":
		if m.selectedRow < len(m.snapshot.Posts)-1 {
			m.selectedRow++
		}
		return m, nil

	case "k", "up":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
		return m, nil

	case "g":
		m.selectedRow = 0
		return m, nil

	case "G":
		if n := len(m.snapshot.Posts); n > 0 {
			m.selectedRow = n - 1
		}
		return m, nil

	case "r":
		return m, m.refreshCmd()

	case "n":
		if !m.sess.Authenticated() {
			return m.gotoLogin("Sign in to post")
		}
		m.mode = modeCompose
		m.inputs = newComposeInputs("What is happening?", "")
		m.focusIdx = 0
		return m, nil

	case "e":
		post, ok := m.selectedPost()
		if !ok {
			return m, nil
		}
		if !m.sess.Authenticated() {
			return m.gotoLogin("Sign in to edit posts")
		}
		if post.OwnerID != m.sess.UserID {
			return m.withToast(toastError, "You can only edit your own posts")
		}
		m.mode = modeEdit
		m.editingID = post.ID
		m.inputs = newComposeInputs("Edit post", post.Content)
		m.focusIdx = 0
		return m, nil

	case "d":
		post, ok := m.selectedPost()
		if !ok {
			return m, nil
		}
		if !m.sess.Authenticated() {
			return m.gotoLogin("Sign in to delete posts")
		}
		if m.busy[feed.ActionDelete] {
			return m, nil
		}
		m.busy[feed.ActionDelete] = true
		return m, m.deletePostCmd(post.ID)

	case "l":
		post, ok := m.selectedPost()
		if !ok {
			return m, nil
		}
		if m.rec.ToggleLike(post.ID) {
			m.snapshot = m.cache.Snapshot()
		}
		return m, nil

	case "f":
		post, ok := m.selectedPost()
		if !ok {
			return m, nil
		}
		if post.Owner == nil && post.OwnerID == 0 {
			return m.withToast(toastError, "This post has no author to follow")
		}
		ownerID := post.OwnerID
		if ownerID == 0 {
			ownerID = post.Owner.ID
		}
		following, err := m.rec.ToggleFollow(ownerID)
		m.snapshot = m.cache.Snapshot()
		if err != nil {
			return m.withToast(toastError, "Could not save follow list")
		}
		if following {
			return m.withToast(toastSuccess, "Following "+post.OwnerName())
		}
		return m.withToast(toastSuccess, "Unfollowed "+post.OwnerName())

	case "c":
		post, ok := m.selectedPost()
		if !ok {
			return m, nil
		}
		if !m.prefs.ShowComments {
			return m.withToast(toastError, "Comments are disabled in preferences")
		}
		m.mode = modeComment
		m.commentID = post.ID
		m.inputs = newComposeInputs("Add a comment", "")
		m.focusIdx = 0
		return m, nil

	case "p":
		if !m.sess.Authenticated() {
			return m.gotoLogin("Sign in to edit your profile")
		}
		m.mode = modeProfile
		m.inputs = newProfileInputs(m.sess.UserName, m.sess.UserEmail)
		m.focusIdx = 0
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.styles = m.theme.Styles()
		m.prefs.Theme = m.theme.Name
		if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
			return m.withToast(toastError, "Could not save preferences")
		}
		return m, nil

	case "o":
		if !m.sess.Authenticated() {
			return m, nil
		}
		m.rec.Logout()
		m.sess = m.rec.Session()
		next, cmd := m.withToast(toastSuccess, "Signed out")
		model := next.(Model)
		model.currentView = ViewLogin
		model.inputs = newLoginInputs()
		model.focusIdx = 0
		return model, cmd

	case "h", "?":
		m.showHelp = true
		return m, nil
	}

	return m, nil
}

func (m Model) handleTimelineFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.inputs = nil
		m.editingID = 0
		m.commentID = 0
		return m, nil
	case "tab", "down":
		m.cycleFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.cycleFocus(-1)
		return m, nil
	case "enter":
		return m.submitTimelineForm()
	}
	return m.updateFocusedInput(msg)
}

func (m Model) submitTimelineForm() (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeCompose:
		if m.busy[feed.ActionCreate] {
			return m, nil
		}
		m.busy[feed.ActionCreate] = true
		return m, m.createPostCmd(m.inputValue(0))

	case modeEdit:
		if m.busy[feed.ActionEdit] {
			return m, nil
		}
		m.busy[feed.ActionEdit] = true
		return m, m.editPostCmd(m.editingID, m.inputValue(0))

	case modeComment:
		if _, err := m.rec.AddComment(m.commentID, m.inputValue(0)); err != nil {
			return m.withToast(toastError, err.Error())
		}
		m.snapshot = m.cache.Snapshot()
		m.mode = modeBrowse
		m.inputs = nil
		m.commentID = 0
		return m.withToast(toastSuccess, "Comment added")

	case modeProfile:
		if m.busy[feed.ActionProfile] {
			return m, nil
		}
		m.busy[feed.ActionProfile] = true
		return m, m.profileCmd(m.inputValue(0), m.inputValue(1))
	}
	return m, nil
}

func (m Model) gotoLogin(reason string) (tea.Model, tea.Cmd) {
	next, cmd := m.withToast(toastError, reason)
	model := next.(Model)
	model.currentView = ViewLogin
	model.inputs = newLoginInputs()
	model.focusIdx = 0
	return model, cmd
}

func (m Model) selectedPost() (api.Post, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.snapshot.Posts) {
		return api.Post{}, false
	}
	return m.snapshot.Posts[m.selectedRow], true
}
