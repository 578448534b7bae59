//go:build windows

package launcher

import "syscall"

func plainSysProcAttr(req LaunchRequest) *syscall.SysProcAttr {
	if !req.CreateNoWindow {
		return nil
	}
	return &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: uint32(CreateNoWindow),
	}
}
