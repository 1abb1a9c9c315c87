package feed

import (
	"fmt"
	"sync"
	"time"

	"chirp/internal/api"
	"chirp/internal/localdata"
)

// UserSuggestion is a user worth following, projected from the owners seen
// in the current feed. It is never fetched on its own.
type UserSuggestion struct {
	ID   int64
	Name string
}

// Snapshot represents the latest feed data available to the UI.
type Snapshot struct {
	Posts       []api.Post
	Liked       map[int64]bool
	LikeCounts  map[int64]int
	Follows     map[int64]bool
	Comments    map[int64][]localdata.Comment
	LastUpdated time.Time
	LastError   error
}

// Cache holds the ordered post collection plus the client-local overlays.
// Bubble Tea commands run off the render goroutine, so access is
// mutex-guarded and snapshots are defensive copies.
type Cache struct {
	mu         sync.RWMutex
	posts      []api.Post
	liked      map[int64]bool
	likeCounts map[int64]int
	follows    map[int64]bool
	comments   map[int64][]localdata.Comment

	lastUpdated time.Time
	lastErr     error
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		liked:      make(map[int64]bool),
		likeCounts: make(map[int64]int),
		follows:    make(map[int64]bool),
		comments:   make(map[int64][]localdata.Comment),
	}
}

// SeedOverlays installs the durable overlays loaded at startup.
func (c *Cache) SeedOverlays(follows map[int64]bool, comments map[int64][]localdata.Comment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, followed := range follows {
		c.follows[id] = followed
	}
	for id, list := range comments {
		c.comments[id] = cloneComments(list)
	}
}

// ReplaceAll installs a fresh feed. Duplicate ids are dropped to keep the
// collection unique. Overlays are untouched; entries for posts no longer on
// the server go stale and are tolerated.
func (c *Cache) ReplaceAll(posts []api.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int64]struct{}, len(posts))
	deduped := make([]api.Post, 0, len(posts))
	for _, post := range posts {
		if _, ok := seen[post.ID]; ok {
			continue
		}
		seen[post.ID] = struct{}{}
		deduped = append(deduped, post)
	}
	c.posts = deduped
	c.lastErr = nil
	c.lastUpdated = time.Now()
}

// SetRefreshError records a failed fetch. The previous posts are kept so the
// UI always has the most recent successful data.
func (c *Cache) SetRefreshError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	c.lastUpdated = time.Now()
}

// InsertAtFront prepends a post after a confirmed create. Inserting an id
// that is already present is a no-op.
func (c *Cache) InsertAtFront(post api.Post) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(post.ID) >= 0 {
		return false
	}
	c.posts = append([]api.Post{post}, c.posts...)
	return true
}

// Replace swaps a post's content after a confirmed edit. Silent no-op when
// the id is absent.
func (c *Cache) Replace(id int64, content string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.posts[i].Content = content
	return true
}

// Remove drops a post and every overlay entry keyed to it, so deletes leave
// no orphaned likes or comments behind.
func (c *Cache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i >= 0 {
		c.posts = append(c.posts[:i], c.posts[i+1:]...)
	}
	delete(c.liked, id)
	delete(c.likeCounts, id)
	delete(c.comments, id)
}

// Post returns the cached post with the given id.
func (c *Cache) Post(id int64) (api.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexLocked(id)
	if i < 0 {
		return api.Post{}, false
	}
	return c.posts[i], true
}

// ToggleLike flips the viewer's like on a post and moves the displayed
// counter by exactly one. Purely presentational: nothing is sent to the
// backend and the counter is never reconciled with a server count. Unknown
// ids are a no-op.
func (c *Cache) ToggleLike(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(id) < 0 {
		return false
	}
	c.liked[id] = !c.liked[id]
	if c.liked[id] {
		c.likeCounts[id]++
	} else {
		c.likeCounts[id]--
	}
	return c.liked[id]
}

// ToggleFollow flips the follow state for a user and returns the new value.
// Independent of the post collection.
func (c *Cache) ToggleFollow(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.follows[userID] = !c.follows[userID]
	return c.follows[userID]
}

// Follows returns a copy of the follow map for persistence.
func (c *Cache) Follows() map[int64]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneBoolMap(c.follows)
}

// AppendComment attaches a local comment to a post. Unknown ids are a no-op.
func (c *Cache) AppendComment(postID int64, comment localdata.Comment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(postID) < 0 {
		return false
	}
	c.comments[postID] = append(c.comments[postID], comment)
	return true
}

// Comments returns a copy of the comment map for persistence.
func (c *Cache) Comments() map[int64][]localdata.Comment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneCommentMap(c.comments)
}

// RenameOwner rewrites the owner name on cached posts after a profile edit.
func (c *Cache) RenameOwner(ownerID int64, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.posts {
		if c.posts[i].Owner != nil && c.posts[i].Owner.ID == ownerID {
			owner := *c.posts[i].Owner
			owner.Name = name
			c.posts[i].Owner = &owner
		}
	}
}

// Suggestions projects the distinct non-self owners observed in the current
// feed, in feed order. Posts without an owner record contribute nothing.
func (c *Cache) Suggestions(selfID int64) []UserSuggestion {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[int64]struct{})
	var out []UserSuggestion
	for _, post := range c.posts {
		if post.Owner == nil || post.Owner.ID == selfID {
			continue
		}
		if _, ok := seen[post.Owner.ID]; ok {
			continue
		}
		seen[post.Owner.ID] = struct{}{}
		out = append(out, UserSuggestion{ID: post.Owner.ID, Name: post.Owner.Name})
	}
	return out
}

// Snapshot returns a copy of the current state for rendering.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Posts:       clonePosts(c.posts),
		Liked:       cloneBoolMap(c.liked),
		LikeCounts:  cloneIntMap(c.likeCounts),
		Follows:     cloneBoolMap(c.follows),
		Comments:    cloneCommentMap(c.comments),
		LastUpdated: c.lastUpdated,
	}
	if c.lastErr != nil {
		snap.LastError = fmt.Errorf("%w", c.lastErr)
	}
	return snap
}

func (c *Cache) indexLocked(id int64) int {
	for i := range c.posts {
		if c.posts[i].ID == id {
			return i
		}
	}
	return -1
}

func clonePosts(posts []api.Post) []api.Post {
	if len(posts) == 0 {
		return nil
	}
	dup := make([]api.Post, len(posts))
	copy(dup, posts)
	for i := range dup {
		if dup[i].Owner != nil {
			owner := *dup[i].Owner
			dup[i].Owner = &owner
		}
	}
	return dup
}

func cloneBoolMap(m map[int64]bool) map[int64]bool {
	dup := make(map[int64]bool, len(m))
	for k, v := range m {
		dup[k] = v
	}
	return dup
}

func cloneIntMap(m map[int64]int) map[int64]int {
	dup := make(map[int64]int, len(m))
	for k, v := range m {
		dup[k] = v
	}
	return dup
}

func cloneCommentMap(m map[int64][]localdata.Comment) map[int64][]localdata.Comment {
	dup := make(map[int64][]localdata.Comment, len(m))
	for k, v := range m {
		dup[k] = cloneComments(v)
	}
	return dup
}

func cloneComments(list []localdata.Comment) []localdata.Comment {
	if len(list) == 0 {
		return nil
	}
	dup := make([]localdata.Comment, len(list))
	copy(dup, list)
	return dup
}
