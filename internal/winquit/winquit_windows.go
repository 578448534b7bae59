//go:build windows

package winquit

import (
	"errors"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procEnumThreadWindows = user32.NewProc("EnumThreadWindows")
	procPostMessageW      = user32.NewProc("PostMessageW")
)

const wmClose = 0x0010

var (
	// Callbacks created by NewCallback are never freed, so there is exactly one.
	enumMu    sync.Mutex
	enumFound uintptr
	enumProc  = windows.NewCallback(func(hwnd, _ uintptr) uintptr {
		enumFound = hwnd
		return 0
	})
)

func processThreads(pid uint32) ([]uint32, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(snap)

	var te windows.ThreadEntry32
	te.Size = uint32(unsafe.Sizeof(te))
	if err := windows.Thread32First(snap, &te); err != nil {
		return nil, err
	}

	var out []uint32
	for {
		if te.OwnerProcessID == pid {
			out = append(out, te.ThreadID)
		}
		if err := windows.Thread32Next(snap, &te); err != nil {
			if errors.Is(err, syscall.ERROR_NO_MORE_FILES) {
				break
			}
			return nil, err
		}
	}
	return out, nil
}

func firstThreadWindow(tid uint32) (uintptr, bool) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumFound = 0
	procEnumThreadWindows.Call(uintptr(tid), enumProc, 0)
	return enumFound, enumFound != 0
}

func postClose(hwnd uintptr) error {
	r1, _, err := procPostMessageW.Call(hwnd, wmClose, 0, 0)
	if r1 == 0 {
		return err
	}
	return nil
}
