//go:build !windows

package winquit

import "errors"

var errUnsupported = errors.New("window messaging is only supported on windows")

func processThreads(uint32) ([]uint32, error) { return nil, errUnsupported }

func firstThreadWindow(uint32) (uintptr, bool) { return 0, false }

func postClose(uintptr) error { return errUnsupported }
