package trash

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/otiai10/copy"

	"github.com/zhengda-lu/imgtag/internal/utils"
)

// Method selects how purged files leave the disk.
type Method string

const (
	Permanent Method = "permanent"
	Trash     Method = "trash"
)

// ParseMethod maps a config value to a Method. Empty means Permanent.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", Permanent:
		return Permanent, nil
	case Trash:
		return Trash, nil
	default:
		return "", fmt.Errorf("unknown purge method %q (use permanent or trash)", s)
	}
}

// Remover returns the delete function for m.
func (m Method) Remover() func(string) error {
	if m == Trash {
		return MoveToTrash
	}
	return PermanentDelete
}

// MoveToTrash moves a file to the user's trash. A missing file is not an error.
func MoveToTrash(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	if !utils.FileExists(absPath) {
		return nil
	}

	if runtime.GOOS == "darwin" {
		return finderTrash(absPath)
	}
	return xdgTrash(absPath, xdgTrashDir())
}

func finderTrash(absPath string) error {
	script := fmt.Sprintf(
		`tell application "Finder" to delete POSIX file %q`,
		absPath,
	)

	cmd := exec.Command("osascript", "-e", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to trash %s: %w (%s)", absPath, err, string(out))
	}
	return nil
}

func xdgTrashDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "Trash")
	}
	return filepath.Join(utils.HomeDir(), ".local", "share", "Trash")
}

// xdgTrash follows the freedesktop.org trash layout: the file goes to
// files/ and a matching .trashinfo records where it came from.
func xdgTrash(absPath, trashDir string) error {
	filesDir := filepath.Join(trashDir, "files")
	infoDir := filepath.Join(trashDir, "info")
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("failed to create trash directory: %w", err)
		}
	}

	name := uniqueName(filesDir, filepath.Base(absPath))
	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		absPath, time.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, name+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0o600); err != nil {
		return fmt.Errorf("failed to write trash info: %w", err)
	}

	dst := filepath.Join(filesDir, name)
	if err := os.Rename(absPath, dst); err != nil {
		// Trash on another filesystem.
		if cerr := copy.Copy(absPath, dst, copy.Options{PreserveTimes: true}); cerr != nil {
			os.Remove(infoPath)
			os.Remove(dst)
			return fmt.Errorf("failed to trash %s: %w", absPath, errors.Join(err, cerr))
		}
		if rerr := os.Remove(absPath); rerr != nil {
			os.Remove(dst)
			os.Remove(infoPath)
			return fmt.Errorf("failed to trash %s: %w", absPath, rerr)
		}
	}
	return nil
}

func uniqueName(dir, name string) string {
	if !utils.FileExists(filepath.Join(dir, name)) {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s.%d%s", stem, i, ext)
		if !utils.FileExists(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
}

// PermanentDelete removes a single file. A missing file is not an error.
func PermanentDelete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
