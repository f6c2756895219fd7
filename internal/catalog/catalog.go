package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Separator joins labels in the persisted encoding. Labels may never contain it.
const Separator = "\x1f"

// Errors returned by Store implementations; compare with errors.Is.
var (
	ErrNotFound     = errors.New("path not tracked")
	ErrConflict     = errors.New("path already tracked")
	ErrInvalidLabel = errors.New("invalid label")
)

// Record is one catalog row.
type Record struct {
	Path   string   `json:"path" yaml:"path"`
	Labels []string `json:"labels" yaml:"labels"`
}

// Stats summarizes the rows of one directory (or the whole catalog).
type Stats struct {
	Total   int            `json:"total"`
	Tagged  int            `json:"tagged"`
	ByLabel map[string]int `json:"by_label"`
}

// Untagged returns the number of rows without labels.
func (s Stats) Untagged() int {
	return s.Total - s.Tagged
}

// Store is the durable path -> labels mapping. Every mutating call has
// committed by the time it returns.
//
// Query and Stats methods accept a directory scope; an empty dir means the
// whole catalog.
type Store interface {
	EnsureTracked(ctx context.Context, paths []string) (int, error)
	Labels(ctx context.Context, path string) ([]string, error)
	SetLabels(ctx context.Context, path string, labels []string) error
	AddLabel(ctx context.Context, path, label string) (bool, error)
	RemoveLabel(ctx context.Context, path, label string) (bool, error)
	Rekey(ctx context.Context, oldPath, newPath string) error
	Remove(ctx context.Context, path string) error
	QueryUntagged(ctx context.Context, dir string) ([]string, error)
	QueryTagged(ctx context.Context, dir string) ([]Record, error)
	Stats(ctx context.Context, dir string) (Stats, error)
	Close() error
}

// Open opens the store for the given driver ("sqlite" or "bolt").
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return OpenSQLite(path)
	case "bolt":
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unknown catalog driver %q (use sqlite or bolt)", driver)
	}
}

// NormalizeLabel trims a label and checks that it can be persisted.
func NormalizeLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidLabel)
	}
	if strings.Contains(label, Separator) {
		return "", fmt.Errorf("%w: %q contains the record separator", ErrInvalidLabel, label)
	}
	return label, nil
}

// NormalizeLabels trims every label and drops duplicates, keeping the first
// occurrence.
func NormalizeLabels(labels []string) ([]string, error) {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		n, err := NormalizeLabel(l)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// HasLabel reports whether labels contains label by exact match.
func HasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func encodeLabels(labels []string) string {
	return strings.Join(labels, Separator)
}

func decodeLabels(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, Separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func withoutLabel(labels []string, label string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l != label {
			out = append(out, l)
		}
	}
	return out
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
