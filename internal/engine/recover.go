package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/zhengda-lu/imgtag/internal/catalog"
)

// maxNameLen is the common file name limit (NAME_MAX on Linux and macOS).
const maxNameLen = 255

// stagedName matches ".imgtag-<run>-<NNNN>-<original name>" and the short
// ".imgtag-<run>-<NNNN><ext>" form used when the original name does not fit.
var stagedName = regexp.MustCompile(`^\.imgtag-([0-9a-f]{8})-(\d{4})(?:-(.+)|(\.[^.]*))?$`)

// stageName is the hidden name record i of a run is parked under. It keeps
// the original base name so an interrupted run can be undone.
func stageName(run string, i int, src string) string {
	name := fmt.Sprintf(".imgtag-%s-%04d-%s", run, i+1, filepath.Base(src))
	if len(name) > maxNameLen {
		name = fmt.Sprintf(".imgtag-%s-%04d%s", run, i+1, filepath.Ext(src))
	}
	return name
}

// recoveredName is where a staged file goes back to: its original name when
// the staging name carries it, otherwise a visible name built from the run.
func recoveredName(m []string) string {
	if m[3] != "" && m[3] != "." && m[3] != ".." {
		return m[3]
	}
	return fmt.Sprintf("recovered-%s-%s%s", m[1], m[2], m[4])
}

// RecoverStaged moves files left under staging names by an interrupted
// Rename back to visible names in dir and re-keys their catalog rows. A row
// already present at the recovered path has no file behind it and is
// dropped. It returns the number of files recovered.
func (e *Engine) RecoverStaged(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	n := 0
	for _, ent := range entries {
		m := stagedName.FindStringSubmatch(ent.Name())
		if m == nil || ent.IsDir() {
			continue
		}

		stage := filepath.Join(dir, ent.Name())
		dst := freeName(filepath.Join(dir, recoveredName(m)))
		if err := os.Rename(stage, dst); err != nil {
			e.logger.Warn("rename: cannot recover staged file", "path", stage, "err", err)
			continue
		}

		err := e.rekey(ctx, stage, dst)
		if errors.Is(err, catalog.ErrConflict) {
			if err = e.store.Remove(ctx, dst); err == nil {
				err = e.rekey(ctx, stage, dst)
			}
		}
		if err != nil {
			if rerr := os.Rename(dst, stage); rerr != nil {
				e.logger.Warn("rename: cannot roll back recovery", "path", dst, "err", rerr)
			}
			return n, storeErr("re-key", stage, err)
		}

		n++
		e.logger.Info("recovered staged file", "from", stage, "to", dst)
	}
	return n, nil
}
