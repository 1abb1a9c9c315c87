// Package localdata persists the client-only overlays: follow status per
// user and comments per post. Neither is ever sent to the backend. Each map
// lives in its own TOML file and is rewritten wholesale on every change,
// with no schema version and no migration path.
package localdata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Comment is a locally-stored comment on a post. It survives restarts but
// exists only on this machine.
type Comment struct {
	ID        string `toml:"id"`
	Text      string `toml:"text"`
	Author    string `toml:"author"`
	Timestamp int64  `toml:"timestamp"`
}

// Store reads and writes the overlay files.
type Store struct {
	followsPath  string
	commentsPath string
}

// NewStore builds a Store over the two overlay file paths.
func NewStore(followsPath, commentsPath string) *Store {
	return &Store{followsPath: followsPath, commentsPath: commentsPath}
}

// LoadFollows reads the follow-status map. Missing or unreadable files yield
// an empty map; LoadFollows never fails.
func (s *Store) LoadFollows() map[int64]bool {
	var raw map[string]bool
	if !readTOML(s.followsPath, &raw) {
		return map[int64]bool{}
	}
	follows := make(map[int64]bool, len(raw))
	for key, followed := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		follows[id] = followed
	}
	return follows
}

// SaveFollows rewrites the follow-status file.
func (s *Store) SaveFollows(follows map[int64]bool) error {
	raw := make(map[string]bool, len(follows))
	for id, followed := range follows {
		raw[strconv.FormatInt(id, 10)] = followed
	}
	return writeTOML(s.followsPath, raw)
}

// LoadComments reads the per-post comment map. Missing or unreadable files
// yield an empty map; LoadComments never fails.
func (s *Store) LoadComments() map[int64][]Comment {
	var raw map[string][]Comment
	if !readTOML(s.commentsPath, &raw) {
		return map[int64][]Comment{}
	}
	comments := make(map[int64][]Comment, len(raw))
	for key, list := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		comments[id] = list
	}
	return comments
}

// SaveComments rewrites the comments file.
func (s *Store) SaveComments(comments map[int64][]Comment) error {
	raw := make(map[string][]Comment, len(comments))
	for id, list := range comments {
		raw[strconv.FormatInt(id, 10)] = list
	}
	return writeTOML(s.commentsPath, raw)
}

func readTOML(path string, dest any) bool {
	resolved, err := expandPath(path)
	if err != nil {
		return false
	}
	file, err := os.Open(resolved)
	if err != nil {
		return false
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return false
	}
	return toml.Unmarshal(bytes, dest) == nil
}

func writeTOML(path string, value any) error {
	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	bytes, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(resolved), err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
