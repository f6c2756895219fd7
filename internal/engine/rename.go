package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zhengda-lu/imgtag/internal/catalog"
)

// RenameSummary reports what a Rename did. Moves maps every original path
// to where the file ended up when that differs from the original.
type RenameSummary struct {
	RunID     string            `json:"run_id"`
	Renamed   int               `json:"renamed"`
	Skipped   int               `json:"skipped"`
	Conflicts []Failure         `json:"conflicts,omitempty"`
	Moves     map[string]string `json:"moves"`
}

// Move is one planned rename.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type stagedFile struct {
	orig   string
	stage  string
	target string
}

// ValidatePrefix trims prefix and rejects values that would escape the
// directory or produce hidden files the scanner skips. A blank prefix is
// returned as "" without error.
func ValidatePrefix(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", nil
	}
	if strings.HasPrefix(prefix, ".") || strings.ContainsAny(prefix, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return prefix, nil
}

// TargetName is the file name record i (zero-based) receives.
func TargetName(prefix string, i int, src string) string {
	return fmt.Sprintf("%s_%04d%s", prefix, i+1, filepath.Ext(src))
}

// PlanRename lists the moves Rename would attempt, without touching disk.
func PlanRename(dir string, workingSet []string, prefix string) ([]Move, error) {
	prefix, err := ValidatePrefix(prefix)
	if err != nil || prefix == "" {
		return nil, err
	}
	moves := make([]Move, 0, len(workingSet))
	for i, src := range workingSet {
		moves = append(moves, Move{From: src, To: filepath.Join(dir, TargetName(prefix, i, src))})
	}
	return moves, nil
}

// Rename renumbers every file of workingSet to prefix_NNNN.ext inside dir and
// re-keys the catalog row of each file in the same step as its move.
//
// Files are first moved to hidden staging names so that targets never
// collide with files that have not been renamed yet. A target already
// occupied outside the working set, or already tracked in the catalog, puts
// the file back and is reported in Conflicts. A catalog failure restores
// every staged file and returns the error. Cancellation is honoured between
// records; staged files are restored before returning. Staged files left
// by an earlier interrupted run are recovered first (see RecoverStaged).
func (e *Engine) Rename(ctx context.Context, dir string, workingSet []string, prefix string, progress ProgressFunc) (RenameSummary, error) {
	sum := RenameSummary{Moves: make(map[string]string)}

	prefix, err := ValidatePrefix(prefix)
	if err != nil || prefix == "" {
		return sum, err
	}

	// Store writes must finish even after cancellation so disk and catalog agree.
	sctx := context.WithoutCancel(ctx)
	if _, err := e.RecoverStaged(sctx, dir); err != nil {
		return sum, err
	}

	sum.RunID = uuid.NewString()
	run := sum.RunID[:8]
	total := 2 * len(workingSet)
	done := 0

	var staged []stagedFile
	for i, src := range workingSet {
		if err := ctx.Err(); err != nil {
			e.restore(sctx, staged, &sum)
			return sum, err
		}

		sf := stagedFile{
			orig:   src,
			stage:  filepath.Join(dir, stageName(run, i, src)),
			target: filepath.Join(dir, TargetName(prefix, i, src)),
		}

		if err := os.Rename(sf.orig, sf.stage); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				sum.Skipped++
			} else {
				sum.Conflicts = append(sum.Conflicts, failure(src, err))
				e.logger.Warn("rename: cannot stage file", "path", src, "err", err)
			}
			done++
			report(progress, done, total, src)
			continue
		}
		if err := e.rekey(sctx, sf.orig, sf.stage); err != nil {
			back := e.moveBack(sf.stage, sf.orig, sf.orig, &sum)
			if errors.Is(err, catalog.ErrConflict) {
				if back {
					sum.Conflicts = append(sum.Conflicts, failure(src, err))
				}
				done++
				report(progress, done, total, src)
				continue
			}
			e.restore(sctx, staged, &sum)
			return sum, storeErr("re-key", src, err)
		}
		staged = append(staged, sf)
		done++
		report(progress, done, total, src)
	}

	for k, sf := range staged {
		if err := ctx.Err(); err != nil {
			e.restore(sctx, staged[k:], &sum)
			return sum, err
		}

		if _, err := os.Lstat(sf.target); err == nil {
			e.restore(sctx, []stagedFile{sf}, &sum)
			sum.Conflicts = append(sum.Conflicts, failure(sf.orig, fmt.Errorf("target %s already exists", filepath.Base(sf.target))))
			done++
			report(progress, done, total, sf.orig)
			continue
		}
		if err := os.Rename(sf.stage, sf.target); err != nil {
			e.restore(sctx, []stagedFile{sf}, &sum)
			sum.Conflicts = append(sum.Conflicts, failure(sf.orig, err))
			done++
			report(progress, done, total, sf.orig)
			continue
		}
		if err := e.rekey(sctx, sf.stage, sf.target); err != nil {
			if !e.moveBack(sf.target, sf.stage, sf.orig, &sum) {
				if errors.Is(err, catalog.ErrConflict) {
					done++
					report(progress, done, total, sf.orig)
					continue
				}
				e.restore(sctx, staged[k+1:], &sum)
				return sum, storeErr("re-key", sf.orig, err)
			}
			if errors.Is(err, catalog.ErrConflict) {
				e.restore(sctx, []stagedFile{sf}, &sum)
				sum.Conflicts = append(sum.Conflicts, failure(sf.orig, err))
				done++
				report(progress, done, total, sf.orig)
				continue
			}
			e.restore(sctx, staged[k:], &sum)
			return sum, storeErr("re-key", sf.orig, err)
		}

		sum.Renamed++
		sum.Moves[sf.orig] = sf.target
		done++
		report(progress, done, total, sf.target)
	}

	e.logger.Info("rename finished", "dir", dir, "prefix", prefix,
		"renamed", sum.Renamed, "skipped", sum.Skipped, "conflicts", len(sum.Conflicts))
	return sum, nil
}

// restore moves staged files back. When the original name has been taken
// by an already renamed file, a free name next to it is used instead and
// recorded in Moves.
func (e *Engine) restore(ctx context.Context, staged []stagedFile, sum *RenameSummary) {
	for i := len(staged) - 1; i >= 0; i-- {
		sf := staged[i]
		dst := freeName(sf.orig)
		if err := os.Rename(sf.stage, dst); err != nil {
			e.logger.Warn("rename: cannot restore staged file", "path", sf.stage, "err", err)
			sum.Conflicts = append(sum.Conflicts, failure(sf.orig, fmt.Errorf("left at %s: %w", sf.stage, err)))
			sum.Moves[sf.orig] = sf.stage
			continue
		}
		if err := e.rekey(ctx, sf.stage, dst); err != nil {
			e.logger.Warn("rename: cannot restore catalog row", "path", dst, "err", err)
		}
		if dst != sf.orig {
			sum.Moves[sf.orig] = dst
		}
	}
}

// moveBack undoes a file move whose catalog re-key failed. When the move
// itself cannot be undone the file's real location is recorded in Moves and
// Conflicts, and false is returned.
func (e *Engine) moveBack(from, to, orig string, sum *RenameSummary) bool {
	if err := os.Rename(from, to); err != nil {
		e.logger.Warn("rename: cannot roll back move", "path", from, "err", err)
		sum.Conflicts = append(sum.Conflicts, failure(orig, fmt.Errorf("left at %s: %w", from, err)))
		sum.Moves[orig] = from
		return false
	}
	return true
}

func freeName(path string) string {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
	}
}
