package resume

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zhengda-lu/imgtag/internal/utils"
)

// Snapshot records where the last review session stopped.
type Snapshot struct {
	Directory   string    `json:"directory"`
	CurrentPath string    `json:"current_path,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// DefaultPath returns ~/.local/share/imgtag/last-session.json.
func DefaultPath() string {
	return filepath.Join(utils.DataDir(), "last-session.json")
}

// Save writes snap as indented JSON, creating parent directories.
func Save(path string, snap Snapshot) error {
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create session state directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	return nil
}

// Load reads a snapshot from path.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read session state: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse session state: %w", err)
	}
	return snap, nil
}

// Usable reports whether the snapshot's directory still exists.
func (s Snapshot) Usable() bool {
	return s.Directory != "" && utils.DirExists(s.Directory)
}
