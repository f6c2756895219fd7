package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/engine"
	"github.com/zhengda-lu/imgtag/internal/history"
	"github.com/zhengda-lu/imgtag/internal/scanner"
	"github.com/zhengda-lu/imgtag/internal/utils"
)

// Errors returned by Session commands.
var (
	ErrBusy            = errors.New("another operation is in progress")
	ErrNoDirectory     = errors.New("no directory is open")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Scanner lists the images of a directory in working-set order.
type Scanner interface {
	Scan(ctx context.Context, dir string) ([]string, error)
}

// Options configures a Session.
type Options struct {
	BatchSize    int
	DefaultLabel string
	UseDefault   bool

	// Verify is passed to Organize.
	Verify  bool
	History *history.History
	Logger  *slog.Logger
}

// Status is a point-in-time view of the session cursors.
type Status struct {
	Directory   string `json:"directory"`
	Total       int    `json:"total"`
	Loaded      int    `json:"loaded"`
	Current     int    `json:"current"`
	CurrentPath string `json:"current_path,omitempty"`
	Busy        bool   `json:"busy"`
}

// HasMore reports whether part of the working set is not tracked yet.
func (s Status) HasMore() bool {
	return s.Loaded < s.Total
}

// Session owns the working set of one directory and serializes every
// mutating command. Commands that would overlap a running one fail with
// ErrBusy instead of waiting.
type Session struct {
	store   catalog.Store
	scanner Scanner
	engine  *engine.Engine
	logger  *slog.Logger

	opMu sync.Mutex
	busy atomic.Bool

	mu      sync.RWMutex
	opts    Options
	dir     string
	working []string
	loaded  int
	current int
}

// New returns a Session with no directory open.
func New(store catalog.Store, sc Scanner, eng *engine.Engine, opts Options) *Session {
	if opts.BatchSize <= 0 {
		opts.BatchSize = scanner.DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:   store,
		scanner: sc,
		engine:  eng,
		logger:  logger,
		opts:    opts,
		current: -1,
	}
}

func (s *Session) acquire() error {
	if !s.opMu.TryLock() {
		return ErrBusy
	}
	s.busy.Store(true)
	return nil
}

func (s *Session) release() {
	s.busy.Store(false)
	s.opMu.Unlock()
}

// OpenDirectory scans dir, tracks its first page and makes it the session's
// directory. Files left under staging names by an interrupted rename are
// recovered first. The returned slice is the full working set.
func (s *Session) OpenDirectory(ctx context.Context, dir string) ([]string, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if !utils.DirExists(abs) {
		return nil, fmt.Errorf("not a directory: %s", abs)
	}

	if _, err := s.engine.RecoverStaged(ctx, abs); err != nil {
		return nil, fmt.Errorf("failed to recover interrupted rename: %w", err)
	}

	ws, err := s.scanner.Scan(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", abs, err)
	}

	s.mu.RLock()
	batch := s.opts.BatchSize
	s.mu.RUnlock()

	loaded, page := scanner.LoadMore(ws, 0, batch)
	if _, err := s.store.EnsureTracked(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to track images: %w", err)
	}

	s.mu.Lock()
	s.dir = abs
	s.working = ws
	s.loaded = loaded
	s.current = -1
	if len(ws) > 0 {
		s.current = 0
	}
	s.mu.Unlock()

	s.logger.Info("opened directory", "dir", abs, "images", len(ws), "loaded", loaded)
	return append([]string(nil), ws...), nil
}

// LoadMore tracks the next page of the working set.
func (s *Session) LoadMore(ctx context.Context) (int, bool, error) {
	if err := s.acquire(); err != nil {
		return 0, false, err
	}
	defer s.release()

	s.mu.RLock()
	dir, ws, loaded, batch := s.dir, s.working, s.loaded, s.opts.BatchSize
	s.mu.RUnlock()
	if dir == "" {
		return 0, false, ErrNoDirectory
	}

	newLoaded, page := scanner.LoadMore(ws, loaded, batch)
	added, err := s.store.EnsureTracked(ctx, page)
	if err != nil {
		return 0, loaded < len(ws), fmt.Errorf("failed to track images: %w", err)
	}

	s.mu.Lock()
	s.loaded = newLoaded
	if s.current == -1 && len(page) > 0 {
		s.current = newLoaded - len(page)
	}
	s.mu.Unlock()

	return added, newLoaded < len(ws), nil
}

// LoadAll tracks every remaining page.
func (s *Session) LoadAll(ctx context.Context) (int, error) {
	total := 0
	for {
		added, more, err := s.LoadMore(ctx)
		total += added
		if err != nil || !more {
			return total, err
		}
	}
}

// Current returns the record under the cursor. Labels come straight from
// the catalog.
func (s *Session) Current() (string, []string, bool) {
	s.mu.RLock()
	idx, ws := s.current, s.working
	s.mu.RUnlock()

	if idx < 0 || idx >= len(ws) {
		return "", nil, false
	}
	path := ws[idx]
	labels, err := s.store.Labels(context.Background(), path)
	if err != nil {
		s.logger.Warn("failed to read labels", "path", path, "err", err)
		labels = []string{}
	}
	return path, labels, true
}

func (s *Session) SetCurrentIndex(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.working) {
		return fmt.Errorf("%w: %d (have %d images)", ErrIndexOutOfRange, i, len(s.working))
	}
	s.current = i
	return nil
}

// Select moves the cursor to path, which must be part of the working set.
func (s *Session) Select(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.working {
		if p == abs {
			s.current = i
			return nil
		}
	}
	return fmt.Errorf("%s is not an image of %s", abs, s.dir)
}

// Next advances the cursor and reports whether it moved.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.working) == 0 || s.current >= len(s.working)-1 {
		return false
	}
	s.current++
	return true
}

// Prev moves the cursor back and reports whether it moved.
func (s *Session) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.working) == 0 || s.current <= 0 {
		return false
	}
	s.current--
	return true
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Directory: s.dir,
		Total:     len(s.working),
		Loaded:    s.loaded,
		Current:   s.current,
		Busy:      s.busy.Load(),
	}
	if s.current >= 0 && s.current < len(s.working) {
		st.CurrentPath = s.working[s.current]
	}
	return st
}

// WorkingSet returns a copy of the current working set.
func (s *Session) WorkingSet() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.working...)
}

// SetDefaultLabel changes the label used for blank input.
func (s *Session) SetDefaultLabel(label string, use bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.DefaultLabel = label
	s.opts.UseDefault = use
}

// DefaultLabel returns the default label and whether it is in use.
func (s *Session) DefaultLabel() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts.DefaultLabel, s.opts.UseDefault
}

// relocate finds path in ws, or clamps old into range when it is gone.
func relocate(ws []string, path string, old int) int {
	if len(ws) == 0 {
		return -1
	}
	if path != "" {
		for i, p := range ws {
			if p == path {
				return i
			}
		}
	}
	if old < 0 {
		return 0
	}
	if old >= len(ws) {
		return len(ws) - 1
	}
	return old
}
