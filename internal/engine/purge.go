package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

type PurgeSummary struct {
	Deleted  int       `json:"deleted"`
	Missing  int       `json:"missing"`
	Failures []Failure `json:"failures,omitempty"`
	Removed  []string  `json:"removed,omitempty"`
}

// PurgeCandidates lists the untagged catalog rows of dir.
func (e *Engine) PurgeCandidates(ctx context.Context, dir string) ([]string, error) {
	paths, err := e.store.QueryUntagged(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to query untagged images: %w", err)
	}
	return paths, nil
}

// Purge deletes every untagged file of dir and drops its catalog row. A
// file already gone from disk only loses its row. A file that cannot be
// deleted keeps its row and is reported in Failures. A catalog failure
// stops the batch.
func (e *Engine) Purge(ctx context.Context, dir string, progress ProgressFunc) (PurgeSummary, error) {
	var sum PurgeSummary

	paths, err := e.PurgeCandidates(ctx, dir)
	if err != nil {
		return sum, err
	}
	sctx := context.WithoutCancel(ctx)

	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		_, statErr := os.Lstat(p)
		missing := errors.Is(statErr, fs.ErrNotExist)
		if !missing {
			if err := e.remove(p); err != nil {
				sum.Failures = append(sum.Failures, failure(p, err))
				e.logger.Warn("purge: cannot delete file", "path", p, "err", err)
				report(progress, i+1, len(paths), p)
				continue
			}
		}

		if err := e.store.Remove(sctx, p); err != nil {
			return sum, storeErr("remove catalog row for", p, err)
		}
		if missing {
			sum.Missing++
		} else {
			sum.Deleted++
		}
		sum.Removed = append(sum.Removed, p)
		report(progress, i+1, len(paths), p)
	}

	e.logger.Info("purge finished", "dir", dir, "deleted", sum.Deleted,
		"missing", sum.Missing, "failures", len(sum.Failures))
	return sum, nil
}
