package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/zhengda-lu/imgtag/internal/engine"
	"github.com/zhengda-lu/imgtag/internal/history"
)

// Rename renumbers the whole working set, then rescans the directory and
// keeps the cursor on the same image.
func (s *Session) Rename(ctx context.Context, prefix string, progress engine.ProgressFunc) (engine.RenameSummary, error) {
	if err := s.acquire(); err != nil {
		return engine.RenameSummary{}, err
	}
	defer s.release()
	return s.rename(ctx, prefix, progress)
}

func (s *Session) rename(ctx context.Context, prefix string, progress engine.ProgressFunc) (engine.RenameSummary, error) {
	s.mu.RLock()
	dir, ws, loaded := s.dir, append([]string(nil), s.working...), s.loaded
	s.mu.RUnlock()
	if dir == "" {
		return engine.RenameSummary{}, ErrNoDirectory
	}

	sum, err := s.engine.Rename(ctx, dir, ws, prefix, progress)
	if sum.RunID == "" {
		// Nothing renamed: blank or invalid prefix, or recovery failed.
		return sum, err
	}

	// The pre-rename working set is stale whether or not the run finished.
	bg := context.WithoutCancel(ctx)
	fresh, scanErr := s.scanner.Scan(bg, dir)
	if scanErr != nil {
		s.logger.Warn("rescan after rename failed, remapping working set", "dir", dir, "err", scanErr)
		fresh = remap(ws, sum.Moves)
	}
	loaded = min(loaded, len(fresh))
	if _, terr := s.store.EnsureTracked(bg, fresh[:loaded]); terr != nil {
		err = errors.Join(err, fmt.Errorf("failed to track renamed images: %w", terr))
	}

	s.mu.Lock()
	var curPath string
	if s.current >= 0 && s.current < len(s.working) {
		curPath = s.working[s.current]
		if moved, ok := sum.Moves[curPath]; ok {
			curPath = moved
		}
	}
	s.working = fresh
	s.loaded = loaded
	s.current = relocate(fresh, curPath, s.current)
	s.mu.Unlock()

	s.record(history.Entry{
		Operation: "rename",
		Directory: dir,
		Items:     sum.Renamed,
		Skipped:   sum.Skipped,
		Failed:    len(sum.Conflicts),
		Detail:    "prefix=" + prefix,
		Cancelled: errors.Is(err, context.Canceled),
	}, err)
	return sum, err
}

func remap(ws []string, moves map[string]string) []string {
	out := make([]string, 0, len(ws))
	for _, p := range ws {
		if to, ok := moves[p]; ok {
			p = to
		}
		if exists(p) {
			out = append(out, p)
		}
	}
	return out
}

// Organize copies the tagged images of the session's directory into
// per-label folders. The working set is unchanged.
func (s *Session) Organize(ctx context.Context, progress engine.ProgressFunc) (engine.OrganizeSummary, error) {
	if err := s.acquire(); err != nil {
		return engine.OrganizeSummary{}, err
	}
	defer s.release()
	return s.organize(ctx, progress)
}

func (s *Session) organize(ctx context.Context, progress engine.ProgressFunc) (engine.OrganizeSummary, error) {
	s.mu.RLock()
	dir, verify := s.dir, s.opts.Verify
	s.mu.RUnlock()
	if dir == "" {
		return engine.OrganizeSummary{}, ErrNoDirectory
	}

	sum, err := s.engine.Organize(ctx, dir, engine.OrganizeOptions{Verify: verify}, progress)
	s.record(history.Entry{
		Operation: "organize",
		Directory: dir,
		Items:     sum.Copied,
		Skipped:   sum.Skipped,
		Failed:    len(sum.Failures) + len(sum.Conflicts),
		Bytes:     sum.Bytes,
		Cancelled: errors.Is(err, context.Canceled),
	}, err)
	return sum, err
}

// PurgeUnlabeled deletes the untagged images of the session's directory,
// drops them from the working set and re-clamps the cursors.
func (s *Session) PurgeUnlabeled(ctx context.Context, progress engine.ProgressFunc) (engine.PurgeSummary, error) {
	if err := s.acquire(); err != nil {
		return engine.PurgeSummary{}, err
	}
	defer s.release()
	return s.purge(ctx, progress)
}

func (s *Session) purge(ctx context.Context, progress engine.ProgressFunc) (engine.PurgeSummary, error) {
	s.mu.RLock()
	dir := s.dir
	s.mu.RUnlock()
	if dir == "" {
		return engine.PurgeSummary{}, ErrNoDirectory
	}

	sum, err := s.engine.Purge(ctx, dir, progress)

	s.mu.Lock()
	var curPath string
	if s.current >= 0 && s.current < len(s.working) {
		curPath = s.working[s.current]
	}
	kept := make([]string, 0, len(s.working))
	removedLoaded := 0
	for i, p := range s.working {
		if exists(p) {
			kept = append(kept, p)
		} else if i < s.loaded {
			removedLoaded++
		}
	}
	s.loaded = max(0, min(s.loaded-removedLoaded, len(kept)))
	s.working = kept
	s.current = relocate(kept, curPath, s.current)
	s.mu.Unlock()

	s.record(history.Entry{
		Operation: "purge",
		Directory: dir,
		Items:     sum.Deleted,
		Skipped:   sum.Missing,
		Failed:    len(sum.Failures),
		Cancelled: errors.Is(err, context.Canceled),
	}, err)
	return sum, err
}

// record journals a finished or cancelled operation. Runs that failed
// outright are not journaled.
func (s *Session) record(e history.Entry, err error) {
	if err != nil && !e.Cancelled {
		return
	}
	s.mu.RLock()
	h := s.opts.History
	s.mu.RUnlock()
	if h == nil {
		return
	}
	if herr := h.Record(e); herr != nil {
		s.logger.Warn("failed to record history", "operation", e.Operation, "err", herr)
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
