package launcher

import (
	"sync"
	"time"
)

// nativeAPI is the OS boundary used by the pipeline. The windows binding lives in
// native_windows.go; tests substitute a fake.
type nativeAPI interface {
	EnumerateSessions() ([]Session, error)
	ActiveConsoleSessionID() uint32
	QueryUserToken(sessionID uint32) (Handle, error)
	DuplicateToken(token Handle, access uint32, level ImpersonationLevel, typ TokenType) (Handle, error)
	CreateEnvironmentBlock(token Handle, inherit bool) (Handle, error)
	DestroyEnvironmentBlock(block Handle) error
	CreateProcessAsUser(token Handle, spec createSpec) (LaunchResult, error)
	CloseHandle(h Handle) error

	WaitProcess(h Handle, timeout time.Duration) (exited bool, err error)
	ExitCode(h Handle) (uint32, error)
	TerminateProcess(h Handle, code uint32) error
}

// owned wraps a native handle shared by one or more owners. Each owner calls
// Close once; the last Close releases the handle.
type owned struct {
	h       Handle
	release func(Handle) error

	mu   sync.Mutex
	refs int
	err  error
}

func ownHandle(api nativeAPI, h Handle) *owned {
	return &owned{h: h, release: api.CloseHandle, refs: 1}
}

func ownEnvironment(api nativeAPI, h Handle) *owned {
	return &owned{h: h, release: api.DestroyEnvironmentBlock, refs: 1}
}

func (o *owned) Handle() Handle {
	if o == nil {
		return 0
	}
	return o.h
}

// retain adds an owner. It returns nil once the handle has been released.
func (o *owned) retain() *owned {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.refs == 0 {
		return nil
	}
	o.refs++
	return o
}

func (o *owned) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.refs == 0 {
		return o.err
	}
	o.refs--
	if o.refs == 0 {
		o.err = o.release(o.h)
	}
	return o.err
}
