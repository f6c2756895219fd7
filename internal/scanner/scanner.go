package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/zhengda-lu/imgtag/internal/imageinfo"
)

// DefaultBatchSize is the page size used when a caller passes a
// non-positive batch size to LoadMore.
const DefaultBatchSize = 100

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
}

type Order int

const (
	OrderName Order = iota
	OrderTaken
	OrderNone
)

func (o Order) String() string {
	switch o {
	case OrderName:
		return "name"
	case OrderTaken:
		return "taken"
	case OrderNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseOrder maps a config value to an Order. Empty means OrderName.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return OrderName, nil
	case "taken":
		return OrderTaken, nil
	case "none":
		return OrderNone, nil
	default:
		return OrderName, fmt.Errorf("unknown scan order %q (use name, taken or none)", s)
	}
}

// Scanner lists the images of a single directory.
type Scanner struct {
	order   Order
	exclude []string
}

// New returns a Scanner. Exclude patterns use doublestar syntax and are
// matched against both the absolute path and the base name.
func New(order Order, exclude []string) (*Scanner, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &Scanner{order: order, exclude: exclude}, nil
}

// IsImage reports whether name has one of the supported extensions.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Scan returns the absolute paths of the eligible images in dir. It does
// not descend into subdirectories. With OrderNone the result follows the
// file system's enumeration order, which is not stable across platforms.
func (s *Scanner) Scan(ctx context.Context, dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	entries, err := f.ReadDir(-1)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := e.Name()
		if strings.HasPrefix(name, ".") || !IsImage(name) {
			continue
		}
		path := filepath.Join(abs, name)
		if !isRegular(e, path) || s.excluded(path) {
			continue
		}
		paths = append(paths, path)
	}

	s.sort(paths)
	return paths, nil
}

func (s *Scanner) excluded(path string) bool {
	base := filepath.Base(path)
	for _, p := range s.exclude {
		if ok, _ := doublestar.PathMatch(p, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) sort(paths []string) {
	switch s.order {
	case OrderName:
		sort.SliceStable(paths, func(i, j int) bool {
			return nameLess(paths[i], paths[j])
		})
	case OrderTaken:
		taken := make(map[string]time.Time, len(paths))
		for _, p := range paths {
			t, _ := imageinfo.TakenAt(p)
			taken[p] = t
		}
		sort.SliceStable(paths, func(i, j int) bool {
			ti, tj := taken[paths[i]], taken[paths[j]]
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return nameLess(paths[i], paths[j])
		})
	}
}

func nameLess(a, b string) bool {
	na, nb := filepath.Base(a), filepath.Base(b)
	la, lb := strings.ToLower(na), strings.ToLower(nb)
	if la != lb {
		return la < lb
	}
	return na < nb
}

func isRegular(e os.DirEntry, path string) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// LoadMore returns the next page of workingSet after the first loaded
// entries, along with the new loaded count. The working set is exhausted
// when the returned count equals len(workingSet).
func LoadMore(workingSet []string, loaded, batchSize int) (int, []string) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if loaded < 0 {
		loaded = 0
	}
	if loaded >= len(workingSet) {
		return len(workingSet), nil
	}
	end := loaded + batchSize
	if end > len(workingSet) {
		end = len(workingSet)
	}
	page := make([]string, end-loaded)
	copy(page, workingSet[loaded:end])
	return end, page
}
