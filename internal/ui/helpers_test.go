package ui

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero time", time.Time{}, ""},
		{"seconds ago", now.Add(-30 * time.Second), "now"},
		{"minutes ago", now.Add(-5 * time.Minute), "5m"},
		{"hours ago", now.Add(-3 * time.Hour), "3h"},
		{"days ago", now.Add(-2 * 24 * time.Hour), "2d"},
		{"weeks ago", now.Add(-10 * 24 * time.Hour), "Feb 28, 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativeTime(tt.t, now); got != tt.want {
				t.Errorf("relativeTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		width int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello w…"},
		{"width one", "hello", 1, "…"},
		{"zero width", "hello", 0, ""},
		{"multibyte", "olá pessoal", 5, "olá …"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.s, tt.width); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		width int
		want  []string
	}{
		{"short line", "hello world", 20, []string{"hello world"}},
		{"wraps on spaces", "the quick brown fox", 10, []string{"the quick", "brown fox"}},
		{"long word split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"keeps paragraphs", "one\n\ntwo", 10, []string{"one", "", "two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, wrapText(tt.s, tt.width)); diff != "" {
				t.Errorf("wrapText(%q, %d) mismatch (-want +got):\n%s", tt.s, tt.width, diff)
			}
		})
	}
}
