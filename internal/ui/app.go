// Package ui provides the Bubble Tea terminal interface for chirp.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"chirp/internal/feed"
	"chirp/internal/prefs"
	"chirp/internal/session"
)

// View represents the current active view.
type View int

const (
	ViewLogin View = iota
	ViewSignup
	ViewRecover
	ViewTimeline
)

// timelineMode tracks which form, if any, is open on top of the feed.
type timelineMode int

const (
	modeBrowse timelineMode = iota
	modeCompose
	modeEdit
	modeComment
	modeProfile
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Reconciler *feed.Reconciler
	Cache      *feed.Cache
	Prefs      prefs.Prefs
	PrefsPath  string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	rec       *feed.Reconciler
	cache     *feed.Cache
	prefs     prefs.Prefs
	prefsPath string

	// UI state
	theme       Theme
	styles      Styles
	currentView View
	mode        timelineMode
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot feed.Snapshot
	sess     session.Session

	// Timeline state
	selectedRow int

	// Form state
	inputs    []textinput.Model
	focusIdx  int
	editingID int64
	commentID int64

	// In-flight actions; the triggering control stays disabled until the
	// result message lands.
	busy map[feed.Action]bool

	toast toast
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	theme := GetTheme(opts.Prefs.Theme)
	sess := opts.Reconciler.Session()

	view := ViewTimeline
	if !sess.Authenticated() {
		view = ViewLogin
	}

	m := Model{
		ctx:         ctx,
		rec:         opts.Reconciler,
		cache:       opts.Cache,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		theme:       theme,
		styles:      theme.Styles(),
		currentView: view,
		snapshot:    opts.Cache.Snapshot(),
		sess:        sess,
		busy:        make(map[feed.Action]bool),
	}
	if view == ViewLogin {
		m.inputs = newLoginInputs()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case refreshDoneMsg:
		m.snapshot = m.cache.Snapshot()
		m.clampSelection()
		if msg.err != nil {
			return m.withToast(toastError, "Could not load the feed")
		}
		return m, nil

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case toastClearMsg:
		if !m.toast.expires.IsZero() && !time.Now().Before(m.toast.expires) {
			m.toast = toast{}
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	switch m.currentView {
	case ViewLogin:
		return m.renderLogin()
	case ViewSignup:
		return m.renderSignup()
	case ViewRecover:
		return m.renderRecover()
	default:
		return m.renderTimeline()
	}
}

// handleActionDone applies the outcome of a reconciler action.
func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	m.busy[msg.action] = false
	m.snapshot = m.cache.Snapshot()
	m.sess = m.rec.Session()
	m.clampSelection()

	if msg.err != nil {
		return m.withToast(toastError, msg.err.Error())
	}

	switch msg.action {
	case feed.ActionCreate:
		m.mode = modeBrowse
		m.inputs = nil
		m.selectedRow = 0
		return m.withToast(toastSuccess, "Posted!")

	case feed.ActionEdit:
		m.mode = modeBrowse
		m.inputs = nil
		m.editingID = 0
		return m.withToast(toastSuccess, "Post updated")

	case feed.ActionDelete:
		return m.withToast(toastSuccess, "Post deleted")

	case feed.ActionLogin:
		m.currentView = ViewTimeline
		m.mode = modeBrowse
		m.inputs = nil
		next, cmd := m.withToast(toastSuccess, "Welcome back, "+m.sess.UserName)
		return next, tea.Batch(cmd, next.(Model).refreshCmd())

	case feed.ActionRegister:
		m.currentView = ViewLogin
		m.inputs = newLoginInputs()
		m.focusIdx = 0
		return m.withToast(toastSuccess, "Account created, sign in")

	case feed.ActionRecover:
		m.currentView = ViewLogin
		m.inputs = newLoginInputs()
		m.focusIdx = 0
		return m.withToast(toastSuccess, "Recovery instructions sent")

	case feed.ActionProfile:
		m.mode = modeBrowse
		m.inputs = nil
		return m.withToast(toastSuccess, "Profile updated")
	}

	return m, nil
}

func (m *Model) clampSelection() {
	if n := len(m.snapshot.Posts); n == 0 {
		m.selectedRow = 0
	} else if m.selectedRow >= n {
		m.selectedRow = n - 1
	}
}

// Messages

type refreshDoneMsg struct {
	err error
}

type actionDoneMsg struct {
	action feed.Action
	err    error
}

type toastClearMsg struct{}

// Commands

func (m Model) refreshCmd() tea.Cmd {
	rec, ctx := m.rec, m.ctx
	return func() tea.Msg {
		return refreshDoneMsg{err: rec.Refresh(ctx)}
	}
}

func (m Model) createPostCmd(content string) tea.Cmd {
	rec, ctx := m.rec, m.ctx
	return func() tea.Msg {
		_, err := rec.CreatePost(ctx, content)
		return actionDoneMsg{action: feed.ActionCreate, err: err}
	}
}

func (m Model) editPostCmd(id int64, content string) tea.Cmd {
	rec, ctx := m.rec, m.ctx
	return func() tea.Msg {
		_, err := rec.EditPost(ctx, id, content)
		return actionDoneMsg{action: feed.ActionEdit, err: err}
	}
}

func (m Model) deletePostCmd(id int64) tea.Cmd {
	rec, ctx := m.rec, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: feed.ActionDelete, err: rec.DeletePost(ctx, id)}
	}
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	rec, ctx := m.rec, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: feed.ActionLogin, err: rec.Login(ctx, email, password)}
	}
}

func (m Model) registerCmd(name, email, password string) tea.Cmd {
	rec, ctx := m.rec, m.ctx
	return func() tea.Msg {
		_, err := rec.Register(ctx, name, email, password)
		return actionDoneMsg{action: feed.ActionRegister, err: err}
	}
}

func (m Model) recoverCmd(email string) tea.Cmd {
	rec, ctx := m.rec, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: feed.ActionRecover, err: rec.RecoverPassword(ctx, email)}
	}
}

func (m Model) profileCmd(name, email string) tea.Cmd {
	rec, ctx := m.rec, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: feed.ActionProfile, err: rec.UpdateProfile(ctx, name, email)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
