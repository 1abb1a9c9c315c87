// Package logging configures the application logger. The TUI owns the
// terminal, so log output goes to a file instead of stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Open returns a logger writing to the given file, creating parent
// directories as needed. The returned closer flushes the file on shutdown.
func Open(path string) (zerolog.Logger, func() error, error) {
	if path == "" {
		return zerolog.Nop(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	logger := zerolog.New(file).With().Timestamp().Logger()
	return logger, file.Close, nil
}
