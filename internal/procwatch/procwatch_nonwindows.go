//go:build !windows

package procwatch

import "errors"

func findByImage(string) ([]uint32, error) {
	return nil, errors.New("process snapshots are only supported on windows")
}
