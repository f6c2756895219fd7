//go:build !linux && !darwin && !freebsd

package engine

import "errors"

func diskFree(string) (int64, error) {
	return 0, errors.New("free space unknown on this platform")
}
