package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chirp/internal/api"
	"chirp/internal/localdata"
	"chirp/internal/session"
)

// MaxPostLength is the content budget in code points, matching the backend.
const MaxPostLength = 280

// Action identifies a user-initiated operation whose lifecycle the view
// layer can observe.
type Action int

const (
	ActionCreate Action = iota
	ActionEdit
	ActionDelete
	ActionLogin
	ActionRegister
	ActionProfile
	ActionRecover
)

// Phase is the lifecycle state of an action: idle until triggered,
// submitting while the request is in flight, then committed or failed.
// Re-invoking an action starts a fresh cycle; nothing retries on its own.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseCommitted
	PhaseFailed
)

// Reconciler mediates between user intents, the remote gateway and the
// local cache. Mutations are deferred until the server confirms: the cache
// is only ever updated from the server's returned representation, so a
// failed action leaves it untouched. The view layer is expected to disable
// the triggering control while an action is submitting; beyond that
// convention there is no guard against overlapping submissions, and the
// cache applies whichever response lands last.
type Reconciler struct {
	gateway  api.Gateway
	cache    *Cache
	sessions *session.Store
	local    *localdata.Store
	log      zerolog.Logger

	mu      sync.Mutex
	current session.Session
	phases  map[Action]Phase
}

// NewReconciler wires the reconciler. The initial session is read from the
// session store.
func NewReconciler(gateway api.Gateway, cache *Cache, sessions *session.Store, local *localdata.Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		gateway:  gateway,
		cache:    cache,
		sessions: sessions,
		local:    local,
		log:      log,
		current:  sessions.Load(),
		phases:   make(map[Action]Phase),
	}
}

// Session returns the current session.
func (r *Reconciler) Session() session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Phase returns the lifecycle state of an action.
func (r *Reconciler) Phase(action Action) Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phases[action]
}

func (r *Reconciler) setPhase(action Action, phase Phase) {
	r.mu.Lock()
	r.phases[action] = phase
	r.mu.Unlock()
}

// Refresh replaces the cached feed with the server's. On failure the
// previous feed is kept and the error recorded for display.
func (r *Reconciler) Refresh(ctx context.Context) error {
	posts, err := r.gateway.ListPosts(ctx)
	if err != nil {
		r.cache.SetRefreshError(err)
		r.log.Warn().Err(err).Msg("feed refresh failed")
		return fmt.Errorf("refresh feed: %w", err)
	}
	r.cache.ReplaceAll(posts)
	r.log.Debug().Int("posts", len(posts)).Msg("feed refreshed")
	return nil
}

// CreatePost publishes new content and inserts the server's representation
// at the front of the feed.
func (r *Reconciler) CreatePost(ctx context.Context, content string) (api.Post, error) {
	if err := validateContent(content); err != nil {
		return api.Post{}, err
	}
	sess := r.Session()
	if !sess.Authenticated() {
		return api.Post{}, &api.AuthError{Detail: "login required to post"}
	}

	r.setPhase(ActionCreate, PhaseSubmitting)
	post, err := r.gateway.CreatePost(ctx, content, sess.Token)
	if err != nil {
		r.setPhase(ActionCreate, PhaseFailed)
		r.log.Warn().Err(err).Msg("create post failed")
		return api.Post{}, err
	}

	// The backend may omit the owner on freshly created posts; fill it from
	// the session so the feed renders a name immediately.
	if post.Owner == nil {
		post.Owner = &api.Owner{ID: sess.UserID, Name: sess.UserName, Email: sess.UserEmail}
	}
	r.cache.InsertAtFront(post)
	r.setPhase(ActionCreate, PhaseCommitted)
	r.log.Info().Int64("post", post.ID).Msg("post created")
	return post, nil
}

// EditPost replaces a post's content. Ownership is checked locally first;
// non-owners are refused without a network round-trip. The committed content
// is the server's echo, not the submitted draft.
func (r *Reconciler) EditPost(ctx context.Context, id int64, content string) (api.Post, error) {
	if err := validateContent(content); err != nil {
		return api.Post{}, err
	}
	sess := r.Session()
	if !sess.Authenticated() {
		return api.Post{}, &api.AuthError{Detail: "login required to edit"}
	}
	if err := r.checkOwnership(id, sess); err != nil {
		return api.Post{}, err
	}

	r.setPhase(ActionEdit, PhaseSubmitting)
	post, err := r.gateway.UpdatePost(ctx, id, content, sess.Token)
	if err != nil {
		r.setPhase(ActionEdit, PhaseFailed)
		r.log.Warn().Err(err).Int64("post", id).Msg("edit post failed")
		return api.Post{}, err
	}

	r.cache.Replace(id, post.Content)
	r.setPhase(ActionEdit, PhaseCommitted)
	r.log.Info().Int64("post", id).Msg("post edited")
	return post, nil
}

// DeletePost removes a post and its overlays after the server confirms.
func (r *Reconciler) DeletePost(ctx context.Context, id int64) error {
	sess := r.Session()
	if !sess.Authenticated() {
		return &api.AuthError{Detail: "login required to delete"}
	}
	if err := r.checkOwnership(id, sess); err != nil {
		return err
	}

	r.setPhase(ActionDelete, PhaseSubmitting)
	if err := r.gateway.DeletePost(ctx, id, sess.Token); err != nil {
		r.setPhase(ActionDelete, PhaseFailed)
		r.log.Warn().Err(err).Int64("post", id).Msg("delete post failed")
		return err
	}

	r.cache.Remove(id)
	r.setPhase(ActionDelete, PhaseCommitted)
	r.log.Info().Int64("post", id).Msg("post deleted")
	return nil
}

// ToggleLike flips the local like overlay. No network call is involved.
func (r *Reconciler) ToggleLike(id int64) bool {
	return r.cache.ToggleLike(id)
}

// ToggleFollow flips the follow overlay and persists it immediately. A
// storage failure is surfaced but does not undo the in-memory flip; the
// overlay files have no transactional grouping.
func (r *Reconciler) ToggleFollow(userID int64) (bool, error) {
	following := r.cache.ToggleFollow(userID)
	if err := r.local.SaveFollows(r.cache.Follows()); err != nil {
		r.log.Warn().Err(err).Int64("user", userID).Msg("persist follows failed")
		return following, fmt.Errorf("persist follows: %w", err)
	}
	return following, nil
}

// AddComment appends a local-only comment authored by the current session
// and persists it immediately. Comments never reach the backend.
func (r *Reconciler) AddComment(postID int64, text string) (localdata.Comment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return localdata.Comment{}, &api.ValidationError{Field: "comment", Reason: "comment must not be empty"}
	}
	sess := r.Session()

	comment := localdata.Comment{
		ID:        uuid.NewString(),
		Text:      trimmed,
		Author:    sess.UserName,
		Timestamp: time.Now().Unix(),
	}
	if !r.cache.AppendComment(postID, comment) {
		return localdata.Comment{}, &api.ValidationError{Field: "comment", Reason: "post is gone"}
	}
	if err := r.local.SaveComments(r.cache.Comments()); err != nil {
		r.log.Warn().Err(err).Int64("post", postID).Msg("persist comments failed")
		return comment, fmt.Errorf("persist comments: %w", err)
	}
	return comment, nil
}

// Login exchanges credentials for a token and verifies the identity behind
// it. When the identity fetch fails, no token survives: the session store is
// cleared and the error surfaced.
func (r *Reconciler) Login(ctx context.Context, email, password string) error {
	r.setPhase(ActionLogin, PhaseSubmitting)
	token, err := r.gateway.Login(ctx, email, password)
	if err != nil {
		r.setPhase(ActionLogin, PhaseFailed)
		r.log.Warn().Err(err).Msg("login failed")
		return err
	}

	account, err := r.gateway.FetchSelf(ctx, token)
	if err != nil {
		r.clearSession()
		r.setPhase(ActionLogin, PhaseFailed)
		r.log.Warn().Err(err).Msg("identity fetch after login failed")
		return err
	}

	sess := session.Session{
		Token:     token,
		UserID:    account.ID,
		UserName:  account.Name,
		UserEmail: account.Email,
	}
	r.mu.Lock()
	r.current = sess
	r.mu.Unlock()
	if err := r.sessions.Save(sess); err != nil {
		r.log.Warn().Err(err).Msg("persist session failed")
	}
	r.setPhase(ActionLogin, PhaseCommitted)
	r.log.Info().Int64("user", account.ID).Msg("logged in")
	return nil
}

// Register creates an account. Validation mirrors the backend's rules so
// obviously bad input never leaves the client.
func (r *Reconciler) Register(ctx context.Context, name, email, password string) (api.Account, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case utf8.RuneCountInString(name) < 2:
		return api.Account{}, &api.ValidationError{Field: "name", Reason: "name must have at least 2 characters"}
	case !strings.Contains(email, "@"):
		return api.Account{}, &api.ValidationError{Field: "email", Reason: "email looks invalid"}
	case utf8.RuneCountInString(password) < 8:
		return api.Account{}, &api.ValidationError{Field: "password", Reason: "password must have at least 8 characters"}
	}

	r.setPhase(ActionRegister, PhaseSubmitting)
	account, err := r.gateway.Register(ctx, name, email, password)
	if err != nil {
		r.setPhase(ActionRegister, PhaseFailed)
		r.log.Warn().Err(err).Msg("registration failed")
		return api.Account{}, err
	}
	r.setPhase(ActionRegister, PhaseCommitted)
	r.log.Info().Int64("user", account.ID).Msg("account registered")
	return account, nil
}

// UpdateProfile changes the session's name and email. The committed values
// are the server's echo; owner names on cached posts are rewritten to match.
func (r *Reconciler) UpdateProfile(ctx context.Context, name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return &api.ValidationError{Field: "profile", Reason: "name and email must not be empty"}
	}
	sess := r.Session()
	if !sess.Authenticated() {
		return &api.AuthError{Detail: "login required to edit profile"}
	}

	r.setPhase(ActionProfile, PhaseSubmitting)
	account, err := r.gateway.UpdateProfile(ctx, name, email, sess.Token)
	if err != nil {
		r.setPhase(ActionProfile, PhaseFailed)
		r.log.Warn().Err(err).Msg("profile update failed")
		return err
	}

	r.mu.Lock()
	r.current.UserName = account.Name
	r.current.UserEmail = account.Email
	sess = r.current
	r.mu.Unlock()
	if err := r.sessions.Save(sess); err != nil {
		r.log.Warn().Err(err).Msg("persist session failed")
	}
	r.cache.RenameOwner(sess.UserID, account.Name)
	r.setPhase(ActionProfile, PhaseCommitted)
	r.log.Info().Msg("profile updated")
	return nil
}

// RecoverPassword asks the backend to send reset instructions.
func (r *Reconciler) RecoverPassword(ctx context.Context, email string) error {
	if !strings.Contains(email, "@") {
		return &api.ValidationError{Field: "email", Reason: "email looks invalid"}
	}
	r.setPhase(ActionRecover, PhaseSubmitting)
	if err := r.gateway.RecoverPassword(ctx, email); err != nil {
		r.setPhase(ActionRecover, PhaseFailed)
		return err
	}
	r.setPhase(ActionRecover, PhaseCommitted)
	return nil
}

// Logout clears the session. Durable overlays stay on disk.
func (r *Reconciler) Logout() {
	r.clearSession()
	r.log.Info().Msg("logged out")
}

func (r *Reconciler) clearSession() {
	r.mu.Lock()
	r.current = session.Session{}
	r.mu.Unlock()
	if err := r.sessions.Clear(); err != nil {
		r.log.Warn().Err(err).Msg("clear session failed")
	}
}

// checkOwnership refuses edit/delete on posts the session does not own,
// before any network traffic. Ownership discovered only server-side still
// comes back as the same error type.
func (r *Reconciler) checkOwnership(id int64, sess session.Session) error {
	post, ok := r.cache.Post(id)
	if !ok {
		return &api.ValidationError{Field: "post", Reason: "post is gone"}
	}
	ownerID := post.OwnerID
	if ownerID == 0 && post.Owner != nil {
		ownerID = post.Owner.ID
	}
	if ownerID != sess.UserID {
		return &api.PermissionError{Detail: "you can only change your own posts"}
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return &api.ValidationError{Field: "content", Reason: "content must not be empty"}
	}
	if utf8.RuneCountInString(content) > MaxPostLength {
		return &api.ValidationError{Field: "content", Reason: fmt.Sprintf("content exceeds %d characters", MaxPostLength)}
	}
	return nil
}
