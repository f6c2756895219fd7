//go:build linux || darwin || freebsd

package engine

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// diskFree returns the available disk space in bytes for the filesystem
// holding path.
func diskFree(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("failed to stat filesystem: %w", err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
