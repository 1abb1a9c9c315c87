package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CHIRP_API_URL", "")
	t.Setenv("CHIRP_DATA_DIR", "")
	t.Setenv("CHIRP_LOG_FILE", "")

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}

	wantDataDir, err := expandPath(defaultDataDir)
	if err != nil {
		t.Fatalf("expandPath(defaultDataDir) returned error: %v", err)
	}
	if cfg.DataDir != wantDataDir {
		t.Fatalf("DataDir = %q, want %q", cfg.DataDir, wantDataDir)
	}
	if cfg.LogFile != filepath.Join(wantDataDir, "chirp.log") {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, filepath.Join(wantDataDir, "chirp.log"))
	}
	if cfg.FollowsPath() != filepath.Join(wantDataDir, "follows.toml") {
		t.Fatalf("FollowsPath = %q, want under data dir", cfg.FollowsPath())
	}
	if cfg.CommentsPath() != filepath.Join(wantDataDir, "comments.toml") {
		t.Fatalf("CommentsPath = %q, want under data dir", cfg.CommentsPath())
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CHIRP_API_URL", "")
	t.Setenv("CHIRP_DATA_DIR", "")
	t.Setenv("CHIRP_LOG_FILE", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  https://feed.example.com  "
data_dir = "  ~/.chirp-data  "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://feed.example.com" {
		t.Fatalf("APIURL = %q, want trimmed value", cfg.APIURL)
	}
	if !strings.HasPrefix(cfg.DataDir, home) {
		t.Fatalf("DataDir = %q, want it under HOME %q", cfg.DataDir, home)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = "https://file.example.com"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("CHIRP_API_URL", "https://env.example.com")
	logFile := filepath.Join(home, "custom.log")
	t.Setenv("CHIRP_LOG_FILE", logFile)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://env.example.com" {
		t.Fatalf("APIURL = %q, want env override", cfg.APIURL)
	}
	if cfg.LogFile != logFile {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, logFile)
	}
}

func TestLoad_InvalidTOMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not valid toml {{{"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
}
