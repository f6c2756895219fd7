package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/trash"
)

// Errors returned by the bulk operations.
var (
	ErrInvalidPrefix     = errors.New("invalid rename prefix")
	ErrInsufficientSpace = errors.New("insufficient free space")
)

// ProgressFunc is called after each record a bulk operation finishes.
type ProgressFunc func(done, total int, path string)

// Failure is a per-record problem that did not abort the batch.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

func failure(path string, err error) Failure {
	return Failure{Path: path, Err: err.Error()}
}

// Engine runs the bulk operations that keep the catalog and the directory
// in step: Rename, Organize and Purge.
type Engine struct {
	store     catalog.Store
	remove    func(string) error
	freeSpace func(string) (int64, error)
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRemover sets how Purge deletes files. Defaults to trash.PermanentDelete.
func WithRemover(fn func(string) error) Option {
	return func(e *Engine) { e.remove = fn }
}

// WithFreeSpace replaces the free-space check used by Organize.
func WithFreeSpace(fn func(string) (int64, error)) Option {
	return func(e *Engine) { e.freeSpace = fn }
}

// WithLogger sets the logger for per-record warnings and summaries.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine working on store. Without options it deletes
// permanently and checks free space with statfs.
func New(store catalog.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		remove:    trash.PermanentDelete,
		freeSpace: diskFree,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// rekey moves a catalog row alongside a file move. Files that were never
// tracked have no row to move.
func (e *Engine) rekey(ctx context.Context, oldPath, newPath string) error {
	err := e.store.Rekey(ctx, oldPath, newPath)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil
	}
	return err
}

func report(progress ProgressFunc, done, total int, path string) {
	if progress != nil {
		progress(done, total, path)
	}
}

func storeErr(op, path string, err error) error {
	return fmt.Errorf("failed to %s %s: %w", op, path, err)
}
