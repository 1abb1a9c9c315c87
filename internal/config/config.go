package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures where the backend lives and where chirp keeps its local
// files.
type Config struct {
	APIURL  string `env:"CHIRP_API_URL"`
	DataDir string `env:"CHIRP_DATA_DIR"`
	LogFile string `env:"CHIRP_LOG_FILE"`
}

const (
	defaultConfigPath = "~/.config/chirp/config.toml"
	defaultDataDir    = "~/.local/share/chirp"
	defaultAPIURL     = "http://127.0.0.1:8000"
)

// Load locates and parses the chirp config, falling back to defaults when
// missing. Environment variables override file values.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{APIURL: defaultAPIURL, DataDir: defaultDataDir}

	file, err := os.Open(resolved)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	if err == nil {
		defer file.Close()

		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		var raw struct {
			APIURL  string `toml:"api_url"`
			DataDir string `toml:"data_dir"`
			LogFile string `toml:"log_file"`
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}

		if v := strings.TrimSpace(raw.APIURL); v != "" {
			cfg.APIURL = v
		}
		if v := strings.TrimSpace(raw.DataDir); v != "" {
			cfg.DataDir = v
		}
		if v := strings.TrimSpace(raw.LogFile); v != "" {
			cfg.LogFile = v
		}
	}

	var overrides Config
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if v := strings.TrimSpace(overrides.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(overrides.DataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(overrides.LogFile); v != "" {
		cfg.LogFile = v
	}

	cfg.DataDir = mustExpand(cfg.DataDir)
	if strings.TrimSpace(cfg.LogFile) == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "chirp.log")
	} else {
		cfg.LogFile = mustExpand(cfg.LogFile)
	}

	return cfg, nil
}

// FollowsPath returns the durable follow-status file location.
func (c Config) FollowsPath() string {
	return filepath.Join(c.DataDir, "follows.toml")
}

// CommentsPath returns the durable local-comments file location.
func (c Config) CommentsPath() string {
	return filepath.Join(c.DataDir, "comments.toml")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
