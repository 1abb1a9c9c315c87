package feed

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"chirp/internal/api"
	"chirp/internal/localdata"
	"chirp/internal/session"
)

// fakeGateway implements api.Gateway with canned responses and records
// which operations were issued.
type fakeGateway struct {
	listPosts   func(ctx context.Context) ([]api.Post, error)
	createPost  func(ctx context.Context, content, token string) (api.Post, error)
	updatePost  func(ctx context.Context, id int64, content, token string) (api.Post, error)
	deletePost  func(ctx context.Context, id int64, token string) error
	login       func(ctx context.Context, email, password string) (string, error)
	fetchSelf   func(ctx context.Context, token string) (api.Account, error)
	calls       []string
}

func (f *fakeGateway) ListPosts(ctx context.Context) ([]api.Post, error) {
	f.calls = append(f.calls, "list")
	if f.listPosts == nil {
		return nil, nil
	}
	return f.listPosts(ctx)
}

func (f *fakeGateway) CreatePost(ctx context.Context, content, token string) (api.Post, error) {
	f.calls = append(f.calls, "create")
	return f.createPost(ctx, content, token)
}

func (f *fakeGateway) UpdatePost(ctx context.Context, id int64, content, token string) (api.Post, error) {
	f.calls = append(f.calls, "update")
	return f.updatePost(ctx, id, content, token)
}

func (f *fakeGateway) DeletePost(ctx context.Context, id int64, token string) error {
	f.calls = append(f.calls, "delete")
	return f.deletePost(ctx, id, token)
}

func (f *fakeGateway) Login(ctx context.Context, email, password string) (string, error) {
	f.calls = append(f.calls, "login")
	return f.login(ctx, email, password)
}

func (f *fakeGateway) FetchSelf(ctx context.Context, token string) (api.Account, error) {
	f.calls = append(f.calls, "self")
	return f.fetchSelf(ctx, token)
}

func (f *fakeGateway) UpdateProfile(ctx context.Context, name, email, token string) (api.Account, error) {
	f.calls = append(f.calls, "profile")
	return api.Account{ID: 7, Name: name, Email: email}, nil
}

func (f *fakeGateway) Register(ctx context.Context, name, email, password string) (api.Account, error) {
	f.calls = append(f.calls, "register")
	return api.Account{ID: 8, Name: name, Email: email}, nil
}

func (f *fakeGateway) RecoverPassword(ctx context.Context, email string) error {
	f.calls = append(f.calls, "recover")
	return nil
}

func newTestReconciler(t *testing.T, gw *fakeGateway, sess session.Session) (*Reconciler, *Cache, *session.Store, *localdata.Store) {
	t.Helper()
	dir := t.TempDir()
	sessions := session.NewStore(filepath.Join(dir, "session.toml"))
	if sess != (session.Session{}) {
		if err := sessions.Save(sess); err != nil {
			t.Fatalf("Save session: %v", err)
		}
	}
	local := localdata.NewStore(filepath.Join(dir, "follows.toml"), filepath.Join(dir, "comments.toml"))
	cache := NewCache()
	r := NewReconciler(gw, cache, sessions, local, zerolog.Nop())
	return r, cache, sessions, local
}

func authedSession() session.Session {
	return session.Session{Token: "tok", UserID: 7, UserName: "Ana", UserEmail: "ana@example.com"}
}

func TestEditPost_CommitsServerEcho(t *testing.T) {
	gw := &fakeGateway{
		updatePost: func(ctx context.Context, id int64, content, token string) (api.Post, error) {
			// Server normalizes the draft.
			return api.Post{ID: id, Content: "hello", OwnerID: 7}, nil
		},
	}
	r, cache, _, _ := newTestReconciler(t, gw, authedSession())
	cache.ReplaceAll([]api.Post{{ID: 1, Content: "old", OwnerID: 7}})

	if _, err := r.EditPost(context.Background(), 1, "  hello  "); err != nil {
		t.Fatalf("EditPost returned error: %v", err)
	}
	post, ok := cache.Post(1)
	if !ok || post.Content != "hello" {
		t.Fatalf("cache content = %q, want server echo %q", post.Content, "hello")
	}
	if r.Phase(ActionEdit) != PhaseCommitted {
		t.Fatalf("edit phase = %v, want committed", r.Phase(ActionEdit))
	}
}

func TestEditDelete_RefusedLocallyForNonOwner(t *testing.T) {
	gw := &fakeGateway{}
	r, cache, _, _ := newTestReconciler(t, gw, authedSession())
	cache.ReplaceAll([]api.Post{{ID: 1, Content: "not yours", OwnerID: 9}})

	_, err := r.EditPost(context.Background(), 1, "hijack")
	if !api.IsPermission(err) {
		t.Fatalf("EditPost error = %v, want PermissionError", err)
	}
	if err := r.DeletePost(context.Background(), 1); !api.IsPermission(err) {
		t.Fatalf("DeletePost error = %v, want PermissionError", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("gateway calls = %v, want none for refused actions", gw.calls)
	}
}

func TestCreatePost_ValidationBlocksNetwork(t *testing.T) {
	gw := &fakeGateway{}
	r, _, _, _ := newTestReconciler(t, gw, authedSession())
	ctx := context.Background()

	if _, err := r.CreatePost(ctx, "   "); !api.IsValidation(err) {
		t.Fatalf("empty content error = %v, want ValidationError", err)
	}

	long := make([]rune, MaxPostLength+1)
	for i := range long {
		long[i] = 'é' // multi-byte, the budget counts code points
	}
	if _, err := r.CreatePost(ctx, string(long)); !api.IsValidation(err) {
		t.Fatalf("overlong content error = %v, want ValidationError", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("gateway calls = %v, want none for invalid input", gw.calls)
	}
}

func TestCreatePost_RequiresToken(t *testing.T) {
	gw := &fakeGateway{}
	r, _, _, _ := newTestReconciler(t, gw, session.Session{})
	if _, err := r.CreatePost(context.Background(), "hello"); !api.IsAuth(err) {
		t.Fatalf("CreatePost error = %v, want AuthError", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("gateway calls = %v, want none without a token", gw.calls)
	}
}

func TestCreatePost_FailureLeavesCacheUnchanged(t *testing.T) {
	gw := &fakeGateway{
		createPost: func(ctx context.Context, content, token string) (api.Post, error) {
			return api.Post{}, &api.ServerError{Status: 500}
		},
	}
	r, cache, _, _ := newTestReconciler(t, gw, authedSession())
	cache.ReplaceAll([]api.Post{{ID: 1, Content: "existing", OwnerID: 7}})
	before := cache.Snapshot()

	if _, err := r.CreatePost(context.Background(), "doomed"); err == nil {
		t.Fatalf("CreatePost returned nil error, want server failure")
	}
	after := cache.Snapshot()
	if diff := cmp.Diff(before.Posts, after.Posts); diff != "" {
		t.Fatalf("cache changed on failed create (-before +after):\n%s", diff)
	}
	if r.Phase(ActionCreate) != PhaseFailed {
		t.Fatalf("create phase = %v, want failed", r.Phase(ActionCreate))
	}
}

func TestCreatePost_FillsMissingOwnerFromSession(t *testing.T) {
	gw := &fakeGateway{
		createPost: func(ctx context.Context, content, token string) (api.Post, error) {
			return api.Post{ID: 5, Content: content, OwnerID: 7}, nil
		},
	}
	r, cache, _, _ := newTestReconciler(t, gw, authedSession())

	post, err := r.CreatePost(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}
	if post.Owner == nil || post.Owner.Name != "Ana" {
		t.Fatalf("owner = %#v, want session identity fill-in", post.Owner)
	}
	snap := cache.Snapshot()
	if len(snap.Posts) != 1 || snap.Posts[0].ID != 5 {
		t.Fatalf("posts = %#v, want created post at front", snap.Posts)
	}
}

func TestDeletePost_RemovesPostAndOverlays(t *testing.T) {
	gw := &fakeGateway{
		deletePost: func(ctx context.Context, id int64, token string) error { return nil },
	}
	r, cache, _, _ := newTestReconciler(t, gw, authedSession())
	cache.ReplaceAll([]api.Post{{ID: 1, Content: "mine", OwnerID: 7}})
	cache.ToggleLike(1)

	if err := r.DeletePost(context.Background(), 1); err != nil {
		t.Fatalf("DeletePost returned error: %v", err)
	}
	snap := cache.Snapshot()
	if len(snap.Posts) != 0 {
		t.Fatalf("posts = %#v, want empty after delete", snap.Posts)
	}
	if _, ok := snap.Liked[1]; ok {
		t.Fatalf("like overlay survived delete")
	}
}

func TestLogin_InvalidCredentialsLeaveSessionCleared(t *testing.T) {
	gw := &fakeGateway{
		login: func(ctx context.Context, email, password string) (string, error) {
			return "", &api.AuthError{Detail: "Email ou senha incorretos"}
		},
	}
	r, _, sessions, _ := newTestReconciler(t, gw, session.Session{})

	err := r.Login(context.Background(), "ana@example.com", "wrong")
	if !api.IsAuth(err) {
		t.Fatalf("Login error = %v, want AuthError", err)
	}
	if r.Session().Authenticated() {
		t.Fatalf("session authenticated after failed login")
	}
	if sessions.Load().Token != "" {
		t.Fatalf("token persisted after failed login")
	}
}

func TestLogin_IdentityFetchFailureClearsToken(t *testing.T) {
	gw := &fakeGateway{
		login: func(ctx context.Context, email, password string) (string, error) {
			return "tok-new", nil
		},
		fetchSelf: func(ctx context.Context, token string) (api.Account, error) {
			return api.Account{}, &api.ServerError{Status: 500}
		},
	}
	// Start from an existing persisted session to prove it gets wiped.
	r, _, sessions, _ := newTestReconciler(t, gw, authedSession())

	if err := r.Login(context.Background(), "ana@example.com", "pw12345678"); err == nil {
		t.Fatalf("Login returned nil error, want identity fetch failure")
	}
	if r.Session().Authenticated() {
		t.Fatalf("session survived failed identity fetch")
	}
	if sessions.Load() != (session.Session{}) {
		t.Fatalf("session store = %#v, want cleared", sessions.Load())
	}
}

func TestLogin_SuccessPersistsAllFields(t *testing.T) {
	gw := &fakeGateway{
		login: func(ctx context.Context, email, password string) (string, error) {
			return "tok-new", nil
		},
		fetchSelf: func(ctx context.Context, token string) (api.Account, error) {
			return api.Account{ID: 7, Name: "Ana", Email: "ana@example.com"}, nil
		},
	}
	r, _, sessions, _ := newTestReconciler(t, gw, session.Session{})

	if err := r.Login(context.Background(), "ana@example.com", "pw12345678"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	want := session.Session{Token: "tok-new", UserID: 7, UserName: "Ana", UserEmail: "ana@example.com"}
	if got := sessions.Load(); got != want {
		t.Fatalf("persisted session = %#v, want %#v", got, want)
	}
}

func TestRegister_ValidatesBeforeNetwork(t *testing.T) {
	gw := &fakeGateway{}
	r, _, _, _ := newTestReconciler(t, gw, session.Session{})
	ctx := context.Background()

	if _, err := r.Register(ctx, "A", "a@example.com", "longenough"); !api.IsValidation(err) {
		t.Fatalf("short name error = %v, want ValidationError", err)
	}
	if _, err := r.Register(ctx, "Ana", "not-an-email", "longenough"); !api.IsValidation(err) {
		t.Fatalf("bad email error = %v, want ValidationError", err)
	}
	if _, err := r.Register(ctx, "Ana", "a@example.com", "short"); !api.IsValidation(err) {
		t.Fatalf("weak password error = %v, want ValidationError", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("gateway calls = %v, want none for invalid input", gw.calls)
	}

	if _, err := r.Register(ctx, "Ana", "a@example.com", "longenough"); err != nil {
		t.Fatalf("valid Register returned error: %v", err)
	}
}

func TestAddComment_AuthoredBySessionAndPersisted(t *testing.T) {
	gw := &fakeGateway{}
	r, cache, _, local := newTestReconciler(t, gw, authedSession())
	cache.ReplaceAll([]api.Post{{ID: 9, Content: "post", OwnerID: 3}})

	comment, err := r.AddComment(9, "  first!  ")
	if err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}
	if comment.Author != "Ana" {
		t.Fatalf("author = %q, want session user name", comment.Author)
	}
	if comment.Text != "first!" {
		t.Fatalf("text = %q, want trimmed", comment.Text)
	}
	if comment.ID == "" {
		t.Fatalf("comment id is empty")
	}

	stored := local.LoadComments()
	if len(stored[9]) != 1 || stored[9][0].Text != "first!" {
		t.Fatalf("persisted comments = %#v, want exactly one for post 9", stored[9])
	}
}

func TestAddComment_EmptyTextRejected(t *testing.T) {
	gw := &fakeGateway{}
	r, cache, _, _ := newTestReconciler(t, gw, authedSession())
	cache.ReplaceAll([]api.Post{{ID: 9, Content: "post", OwnerID: 3}})

	if _, err := r.AddComment(9, "   "); !api.IsValidation(err) {
		t.Fatalf("AddComment error = %v, want ValidationError", err)
	}
}

func TestToggleFollow_PersistsEachFlip(t *testing.T) {
	gw := &fakeGateway{}
	r, _, _, local := newTestReconciler(t, gw, authedSession())

	following, err := r.ToggleFollow(42)
	if err != nil || !following {
		t.Fatalf("first toggle = %v, %v, want true, nil", following, err)
	}
	if !local.LoadFollows()[42] {
		t.Fatalf("first flip not persisted")
	}

	following, err = r.ToggleFollow(42)
	if err != nil || following {
		t.Fatalf("second toggle = %v, %v, want false, nil", following, err)
	}
	if got, ok := local.LoadFollows()[42]; !ok || got {
		t.Fatalf("second flip not persisted: value %v present %v", got, ok)
	}
}

func TestUpdateProfile_RewritesCachedOwnerNames(t *testing.T) {
	gw := &fakeGateway{}
	r, cache, sessions, _ := newTestReconciler(t, gw, authedSession())
	cache.ReplaceAll([]api.Post{
		{ID: 1, Content: "mine", OwnerID: 7, Owner: &api.Owner{ID: 7, Name: "Ana"}},
		{ID: 2, Content: "theirs", OwnerID: 9, Owner: &api.Owner{ID: 9, Name: "Bruno"}},
	})

	if err := r.UpdateProfile(context.Background(), "Ana Clara", "ac@example.com"); err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	snap := cache.Snapshot()
	if snap.Posts[0].Owner.Name != "Ana Clara" {
		t.Fatalf("own post owner = %q, want renamed", snap.Posts[0].Owner.Name)
	}
	if snap.Posts[1].Owner.Name != "Bruno" {
		t.Fatalf("other post owner = %q, want untouched", snap.Posts[1].Owner.Name)
	}
	if got := sessions.Load(); got.UserName != "Ana Clara" || got.UserEmail != "ac@example.com" {
		t.Fatalf("persisted session = %#v, want updated identity", got)
	}
}

func TestRefresh_FailureKeepsLastGoodFeed(t *testing.T) {
	healthy := []api.Post{{ID: 1, Content: "ok", OwnerID: 7}}
	fail := false
	gw := &fakeGateway{
		listPosts: func(ctx context.Context) ([]api.Post, error) {
			if fail {
				return nil, &api.NetworkError{Op: "GET /tweets/", Err: errors.New("refused")}
			}
			return healthy, nil
		},
	}
	r, cache, _, _ := newTestReconciler(t, gw, session.Session{})

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	fail = true
	if err := r.Refresh(context.Background()); err == nil {
		t.Fatalf("Refresh returned nil error, want failure")
	}
	snap := cache.Snapshot()
	if len(snap.Posts) != 1 {
		t.Fatalf("posts = %#v, want last good feed kept", snap.Posts)
	}
	if snap.LastError == nil {
		t.Fatalf("LastError = nil, want recorded refresh failure")
	}
}

func TestLogout_ClearsSessionKeepsOverlays(t *testing.T) {
	gw := &fakeGateway{}
	r, _, sessions, local := newTestReconciler(t, gw, authedSession())
	if _, err := r.ToggleFollow(42); err != nil {
		t.Fatalf("ToggleFollow returned error: %v", err)
	}

	r.Logout()
	if r.Session().Authenticated() {
		t.Fatalf("session authenticated after logout")
	}
	if sessions.Load() != (session.Session{}) {
		t.Fatalf("session store not cleared on logout")
	}
	if !local.LoadFollows()[42] {
		t.Fatalf("durable overlays wiped on logout")
	}
}
