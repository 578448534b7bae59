//go:build !windows

package launcher

import "syscall"

func plainSysProcAttr(_ LaunchRequest) *syscall.SysProcAttr {
	return nil
}
