// Package procwatch finds running processes by image name.
package procwatch

import (
	"context"
	"time"
)

// FindByImage returns the pids of every running process whose image name
// matches name, ignoring case.
func FindByImage(name string) ([]uint32, error) {
	return findByImage(name)
}

// WaitGone polls until no process named name is running or ctx is done.
func WaitGone(ctx context.Context, name string, poll time.Duration) error {
	return waitGone(ctx, name, poll, findByImage)
}

func waitGone(ctx context.Context, name string, poll time.Duration, find func(string) ([]uint32, error)) error {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	for {
		pids, err := find(name)
		if err != nil {
			return err
		}
		if len(pids) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}
