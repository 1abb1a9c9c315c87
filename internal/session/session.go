// Package session persists the authenticated identity between runs.
// The session lives in ~/.config/chirp/session.toml.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Session holds the authenticated identity. A zero UserID or empty Token
// means the field is absent.
type Session struct {
	Token     string `toml:"token"`
	UserID    int64  `toml:"user_id"`
	UserName  string `toml:"user_name"`
	UserEmail string `toml:"user_email"`
}

// Authenticated reports whether the session carries a token. Without one,
// the identity fields must not be trusted for posting, editing or deleting.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != ""
}

const defaultSessionPath = "~/.config/chirp/session.toml"

// Store reads and writes the session file.
type Store struct {
	path string
}

// NewStore builds a Store for the given path; empty uses the default.
func NewStore(path string) *Store {
	if strings.TrimSpace(path) == "" {
		path = defaultSessionPath
	}
	return &Store{path: path}
}

// Load reads the persisted session. Missing or unreadable files yield an
// empty session; Load never fails.
func (s *Store) Load() Session {
	resolved, err := expandPath(s.path)
	if err != nil {
		return Session{}
	}

	file, err := os.Open(resolved)
	if err != nil {
		return Session{}
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Session{}
	}

	var sess Session
	if err := toml.Unmarshal(bytes, &sess); err != nil {
		return Session{}
	}
	return sess
}

// Save persists all session fields in a single file write.
func (s *Store) Save(sess Session) error {
	resolved, err := expandPath(s.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	bytes, err := toml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session file. Used on logout and when identity
// verification fails after login.
func (s *Store) Clear() error {
	resolved, err := expandPath(s.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
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
