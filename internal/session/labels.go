package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhengda-lu/imgtag/internal/catalog"
)

type cursor struct {
	path   string
	index  int
	loaded int
}

func (s *Session) cursor() (cursor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current < 0 || s.current >= len(s.working) {
		return cursor{}, false
	}
	return cursor{path: s.working[s.current], index: s.current, loaded: s.loaded}, true
}

// AddLabel adds input to the current record. Blank input falls back to the
// default label when that is enabled. Input that is still blank, that is
// not a valid label, or that the record already has is ignored without
// touching the catalog.
func (s *Session) AddLabel(ctx context.Context, input string) (bool, error) {
	if err := s.acquire(); err != nil {
		return false, err
	}
	defer s.release()
	return s.addLabel(ctx, input)
}

func (s *Session) addLabel(ctx context.Context, input string) (bool, error) {
	cur, ok := s.cursor()
	if !ok {
		return false, nil
	}

	label := strings.TrimSpace(input)
	if label == "" {
		def, use := s.DefaultLabel()
		if use {
			label = strings.TrimSpace(def)
		}
	}
	label, err := catalog.NormalizeLabel(label)
	if err != nil {
		return false, nil
	}

	labels, err := s.store.Labels(ctx, cur.path)
	if err != nil {
		return false, fmt.Errorf("failed to read labels: %w", err)
	}
	if catalog.HasLabel(labels, label) {
		return false, nil
	}

	// Navigation may run ahead of the loaded prefix.
	if cur.index >= cur.loaded {
		if _, err := s.store.EnsureTracked(ctx, []string{cur.path}); err != nil {
			return false, fmt.Errorf("failed to track %s: %w", cur.path, err)
		}
	}

	added, err := s.store.AddLabel(ctx, cur.path, label)
	if err != nil {
		return false, fmt.Errorf("failed to add label: %w", err)
	}
	if added {
		s.logger.Debug("label added", "path", cur.path, "label", label)
	}
	return added, nil
}

// RemoveLabel removes label from the current record. Removing a label the
// record does not carry is a no-op.
func (s *Session) RemoveLabel(ctx context.Context, label string) (bool, error) {
	if err := s.acquire(); err != nil {
		return false, err
	}
	defer s.release()
	return s.removeLabel(ctx, label)
}

func (s *Session) removeLabel(ctx context.Context, label string) (bool, error) {
	cur, ok := s.cursor()
	if !ok {
		return false, nil
	}
	removed, err := s.store.RemoveLabel(ctx, cur.path, label)
	if err != nil {
		return false, fmt.Errorf("failed to remove label: %w", err)
	}
	if removed {
		s.logger.Debug("label removed", "path", cur.path, "label", label)
	}
	return removed, nil
}

// ToggleLabel removes label when the current record has it and adds it
// otherwise. It reports whether the label is present afterwards.
func (s *Session) ToggleLabel(ctx context.Context, label string) (bool, error) {
	if err := s.acquire(); err != nil {
		return false, err
	}
	defer s.release()

	cur, ok := s.cursor()
	if !ok {
		return false, nil
	}
	label = strings.TrimSpace(label)
	labels, err := s.store.Labels(ctx, cur.path)
	if err != nil {
		return false, fmt.Errorf("failed to read labels: %w", err)
	}
	if catalog.HasLabel(labels, label) {
		_, err := s.removeLabel(ctx, label)
		return false, err
	}
	added, err := s.addLabel(ctx, label)
	return added, err
}
