package tui

import (
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLabelColor(t *testing.T) {
	if got := labelColor(""); got != colorPrimary {
		t.Errorf("labelColor(\"\") = %v, want colorPrimary", got)
	}
	for _, name := range []string{"cat", "dog", "holiday 2024", "ü"} {
		got := labelColor(name)
		if !slices.Contains(labelColors, got) {
			t.Errorf("labelColor(%q) = %v, not in palette", name, got)
		}
		if again := labelColor(name); again != got {
			t.Errorf("labelColor(%q) not stable: %v then %v", name, got, again)
		}
	}
}

func TestCoverageColor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  lipgloss.Color
	}{
		{1.00, coverageCovered},
		{0.99, coverageMedium},
		{0.50, coverageMedium},
		{0.49, coverageLow},
		{0.00, coverageLow},
	}
	for _, tt := range tests {
		if got := coverageColor(tt.ratio); got != tt.want {
			t.Errorf("coverageColor(%.2f) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestRenderCoverageBar(t *testing.T) {
	tests := []struct {
		ratio  float64
		filled int
	}{
		{0, 0},
		{0.01, 1},
		{0.5, 5},
		{1, 10},
		{2, 10},
	}
	for _, tt := range tests {
		bar := renderCoverageBar(tt.ratio, 10)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("renderCoverageBar(%.2f) filled %d cells, want %d", tt.ratio, got, tt.filled)
		}
		if got := strings.Count(bar, "░"); got != 10-tt.filled {
			t.Errorf("renderCoverageBar(%.2f) left %d empty cells, want %d", tt.ratio, got, 10-tt.filled)
		}
	}
}

func TestTruncPath(t *testing.T) {
	tests := []struct {
		path   string
		maxLen int
		want   string
	}{
		{"short.png", 20, "short.png"},
		{"/very/long/path/to/photo.png", 12, "...photo.png"},
		{"abcdef", 3, "def"},
	}
	for _, tt := range tests {
		if got := truncPath(tt.path, tt.maxLen); got != tt.want {
			t.Errorf("truncPath(%q, %d) = %q, want %q", tt.path, tt.maxLen, got, tt.want)
		}
	}
}
