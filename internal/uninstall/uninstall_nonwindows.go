//go:build !windows

package uninstall

import "errors"

var errUnsupported = errors.New("uninstall entries are only supported on windows")

func writeValues(string, map[string]string) error { return errUnsupported }

func removeKey(string) error { return errUnsupported }
