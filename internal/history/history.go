package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zhengda-lu/imgtag/internal/utils"
)

// Entry is one completed (or cancelled) bulk operation.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"` // "rename", "organize" or "purge"
	Directory string    `json:"directory"`
	Items     int       `json:"items"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Bytes     int64     `json:"bytes,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

type OperationStats struct {
	Runs  int   `json:"runs"`
	Items int   `json:"items"`
	Bytes int64 `json:"bytes"`
}

type Stats struct {
	TotalOperations int                       `json:"total_operations"`
	ByOperation     map[string]OperationStats `json:"by_operation"`
	Recent          []Entry                   `json:"recent"`
}

// History manages the operation journal file.
type History struct {
	path string
}

func New(path string) *History {
	return &History{path: path}
}

// DefaultPath returns ~/.local/share/imgtag/history.json.
func DefaultPath() string {
	return filepath.Join(utils.DataDir(), "history.json")
}

// Record appends e to the journal, filling in ID and Timestamp when unset.
func (h *History) Record(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	entries, err := h.Load()
	if err != nil {
		// A missing or corrupt journal starts over rather than blocking the operation.
		entries = nil
	}
	entries = append(entries, e)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// Load reads all entries. A missing file yields no entries and no error.
func (h *History) Load() ([]Entry, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	return entries, nil
}

// Stats aggregates the journal per operation, with the five most recent
// entries first.
func (h *History) Stats() Stats {
	s := Stats{ByOperation: make(map[string]OperationStats)}

	entries, err := h.Load()
	if err != nil || len(entries) == 0 {
		return s
	}

	s.TotalOperations = len(entries)
	for _, e := range entries {
		op := s.ByOperation[e.Operation]
		op.Runs++
		op.Items += e.Items
		op.Bytes += e.Bytes
		s.ByOperation[e.Operation] = op
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	limit := min(5, len(sorted))
	s.Recent = sorted[:limit]
	return s
}
