// Package winquit asks a running process to shut down by posting WM_CLOSE to
// one of its top-level windows.
package winquit

import (
	"errors"
	"fmt"
)

// ErrNoWindow is returned when none of the process's threads owns a window.
var ErrNoWindow = errors.New("process has no top-level window")

// RequestClose posts WM_CLOSE to the first top-level window owned by a thread
// of pid. It returns without waiting for the process to exit.
func RequestClose(pid uint32) error {
	threads, err := processThreads(pid)
	if err != nil {
		return fmt.Errorf("list threads of pid=%d: %w", pid, err)
	}
	return closeFirstWindow(threads, firstThreadWindow, postClose)
}

// closeFirstWindow walks threads in order and posts to the first window found.
func closeFirstWindow(threads []uint32, windowOf func(tid uint32) (uintptr, bool), post func(hwnd uintptr) error) error {
	for _, tid := range threads {
		hwnd, ok := windowOf(tid)
		if !ok {
			continue
		}
		if err := post(hwnd); err != nil {
			return fmt.Errorf("post WM_CLOSE to hwnd=%#x: %w", hwnd, err)
		}
		return nil
	}
	return ErrNoWindow
}
