package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHomeDir(t *testing.T) {
	expected, _ := os.UserHomeDir()
	if got := HomeDir(); got != expected {
		t.Errorf("HomeDir = %q, want %q", got, expected)
	}
}

func TestDataAndConfigDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	if got := DataDir(); got != filepath.Join("/xdg/data", "imgtag") {
		t.Errorf("DataDir = %q", got)
	}
	if got := ConfigDir(); got != filepath.Join("/xdg/config", "imgtag") {
		t.Errorf("ConfigDir = %q", got)
	}

	t.Setenv("XDG_DATA_HOME", "")
	want := filepath.Join(HomeDir(), ".local", "share", "imgtag")
	if got := DataDir(); got != want {
		t.Errorf("DataDir fallback = %q, want %q", got, want)
	}
}

func TestExpandHome(t *testing.T) {
	home := HomeDir()
	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/pics", filepath.Join(home, "pics")},
		{"/abs/path", "/abs/path"},
		{"rel/~", "rel/~"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandHome(tt.in); got != tt.want {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	if !DirExists(dir) {
		t.Error("DirExists should return true for existing dir")
	}
	if DirExists(filepath.Join(dir, "nope")) {
		t.Error("DirExists should return false for non-existent dir")
	}
	f := filepath.Join(dir, "a.png")
	os.WriteFile(f, []byte("hi"), 0o644)
	if DirExists(f) {
		t.Error("DirExists should return false for a file")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.png")
	os.WriteFile(f, []byte("hi"), 0o644)

	if !FileExists(f) {
		t.Error("FileExists should return true for existing file")
	}
	if FileExists(dir) {
		t.Error("FileExists should return false for a directory")
	}
	if FileExists(filepath.Join(dir, "nope")) {
		t.Error("FileExists should return false for non-existent path")
	}
}
