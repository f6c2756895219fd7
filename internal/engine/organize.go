package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"

	"github.com/zhengda-lu/imgtag/internal/utils"
)

type OrganizeOptions struct {
	// Verify hashes existing destinations and reports the ones whose
	// content differs from the source.
	Verify bool
}

type OrganizeSummary struct {
	Copied    int       `json:"copied"`
	Bytes     int64     `json:"bytes"`
	Existing  int       `json:"existing"`
	Skipped   int       `json:"skipped"`
	Failures  []Failure `json:"failures,omitempty"`
	Conflicts []Failure `json:"conflicts,omitempty"`
}

// CopyJob is one pending copy into a label folder.
type CopyJob struct {
	Src   string `json:"src"`
	Dst   string `json:"dst"`
	Label string `json:"label"`
	Size  int64  `json:"size"`
}

// OrganizePlan is the result of comparing the tagged catalog rows of a
// directory against what is already on disk.
type OrganizePlan struct {
	Jobs    []CopyJob
	Summary OrganizeSummary
}

// Bytes is the total size of the pending copies.
func (p OrganizePlan) Bytes() int64 {
	var n int64
	for _, j := range p.Jobs {
		n += j.Size
	}
	return n
}

func safeComponent(label string) bool {
	if label == "." || label == ".." {
		return false
	}
	return !strings.ContainsAny(label, `/\`)
}

// PlanOrganize works out which copies Organize would make. Label folders
// live next to each file: <file's dir>/<label>/<file name>.
func (e *Engine) PlanOrganize(ctx context.Context, dir string, opts OrganizeOptions) (OrganizePlan, error) {
	var plan OrganizePlan

	records, err := e.store.QueryTagged(ctx, dir)
	if err != nil {
		return plan, fmt.Errorf("failed to query tagged images: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return plan, err
		}

		fi, err := os.Stat(rec.Path)
		if err != nil || !fi.Mode().IsRegular() {
			plan.Summary.Skipped++
			continue
		}

		for _, label := range rec.Labels {
			if !safeComponent(label) {
				plan.Summary.Failures = append(plan.Summary.Failures,
					failure(rec.Path, fmt.Errorf("label %q is not usable as a folder name", label)))
				continue
			}

			dst := filepath.Join(filepath.Dir(rec.Path), label, filepath.Base(rec.Path))
			if _, err := os.Lstat(dst); err == nil {
				plan.Summary.Existing++
				if opts.Verify {
					e.verify(rec.Path, dst, &plan.Summary)
				}
				continue
			}
			plan.Jobs = append(plan.Jobs, CopyJob{Src: rec.Path, Dst: dst, Label: label, Size: fi.Size()})
		}
	}
	return plan, nil
}

func (e *Engine) verify(src, dst string, sum *OrganizeSummary) {
	same, err := sameContent(src, dst)
	if err != nil {
		sum.Conflicts = append(sum.Conflicts, failure(dst, err))
		return
	}
	if !same {
		sum.Conflicts = append(sum.Conflicts, failure(dst, fmt.Errorf("content differs from %s", src)))
	}
}

// Organize copies every tagged file of dir into one subfolder per label.
// Copies that already exist are left alone, so running it twice copies
// nothing the second time. Sources are never modified.
func (e *Engine) Organize(ctx context.Context, dir string, opts OrganizeOptions, progress ProgressFunc) (OrganizeSummary, error) {
	plan, err := e.PlanOrganize(ctx, dir, opts)
	if err != nil {
		return plan.Summary, err
	}
	sum := plan.Summary

	if need := plan.Bytes(); need > 0 && e.freeSpace != nil {
		free, err := e.freeSpace(dir)
		if err == nil && free < need {
			return sum, fmt.Errorf("%w: need %s, have %s", ErrInsufficientSpace,
				utils.FormatSize(need), utils.FormatSize(free))
		}
	}

	total := len(plan.Jobs)
	for i, job := range plan.Jobs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		copied, err := e.copyOne(job)
		switch {
		case err != nil && errors.Is(err, fs.ErrNotExist):
			sum.Skipped++
		case err != nil:
			sum.Failures = append(sum.Failures, failure(job.Src, err))
			e.logger.Warn("organize: copy failed", "src", job.Src, "dst", job.Dst, "err", err)
		case copied:
			sum.Copied++
			sum.Bytes += job.Size
		default:
			sum.Existing++
		}
		report(progress, i+1, total, job.Dst)
	}

	e.logger.Info("organize finished", "dir", dir, "copied", sum.Copied, "bytes", sum.Bytes,
		"existing", sum.Existing, "skipped", sum.Skipped, "failures", len(sum.Failures))
	return sum, nil
}

func (e *Engine) copyOne(job CopyJob) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(job.Dst), 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(job.Dst), err)
	}
	if _, err := os.Lstat(job.Dst); err == nil {
		return false, nil
	}
	// Symlinked sources are copied by content.
	src, err := filepath.EvalSymlinks(job.Src)
	if err != nil {
		return false, err
	}

	err = copy.Copy(src, job.Dst, copy.Options{PreserveTimes: true, Sync: true})
	if err != nil {
		os.Remove(job.Dst)
		return false, fmt.Errorf("failed to copy to %s: %w", job.Dst, err)
	}
	return true, nil
}
