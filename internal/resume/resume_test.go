package resume

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "last-session.json")

	ts := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	snap := Snapshot{Directory: dir, CurrentPath: filepath.Join(dir, "a.png"), Timestamp: ts}

	if err := Save(path, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", loaded.Timestamp, ts)
	}
	if loaded.Directory != dir || loaded.CurrentPath != snap.CurrentPath {
		t.Errorf("loaded = %+v", loaded)
	}
	if !loaded.Usable() {
		t.Error("snapshot of an existing directory should be usable")
	}
}

func TestSaveFillsTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	if err := Save(path, Snapshot{Directory: "/x"}); err != nil {
		t.Fatal(err)
	}
	loaded, _ := Load(path)
	if loaded.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("not json"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestUsable(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"empty", Snapshot{}, false},
		{"missing dir", Snapshot{Directory: filepath.Join(t.TempDir(), "gone")}, false},
		{"existing dir", Snapshot{Directory: t.TempDir()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Usable(); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}
