package winquit

import (
	"errors"
	"runtime"
	"testing"
)

func TestCloseFirstWindowStopsAtFirstMatch(t *testing.T) {
	windowsByThread := map[uint32]uintptr{20: 0xA0, 30: 0xB0}
	var posted []uintptr

	err := closeFirstWindow(
		[]uint32{10, 20, 30},
		func(tid uint32) (uintptr, bool) {
			h, ok := windowsByThread[tid]
			return h, ok
		},
		func(hwnd uintptr) error {
			posted = append(posted, hwnd)
			return nil
		},
	)
	if err != nil {
		t.Fatalf("closeFirstWindow: %v", err)
	}
	if len(posted) != 1 || posted[0] != 0xA0 {
		t.Fatalf("posted=%v, want [0xa0]", posted)
	}
}

func TestCloseFirstWindowNoWindow(t *testing.T) {
	err := closeFirstWindow(
		[]uint32{1, 2},
		func(uint32) (uintptr, bool) { return 0, false },
		func(uintptr) error { t.Fatal("post should not be called"); return nil },
	)
	if !errors.Is(err, ErrNoWindow) {
		t.Fatalf("err=%v, want ErrNoWindow", err)
	}
}

func TestCloseFirstWindowPostError(t *testing.T) {
	postErr := errors.New("access denied")
	err := closeFirstWindow(
		[]uint32{1},
		func(uint32) (uintptr, bool) { return 0x10, true },
		func(uintptr) error { return postErr },
	)
	if !errors.Is(err, postErr) {
		t.Fatalf("err=%v, want wrapped post error", err)
	}
}

func TestRequestCloseUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("non-windows behaviour")
	}
	if err := RequestClose(1); err == nil {
		t.Fatal("expected error on non-windows")
	}
}
