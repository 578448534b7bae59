//go:build windows

package launcher

import (
	"errors"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                         = windows.NewLazySystemDLL("kernel32.dll")
	procWTSGetActiveConsoleSessionID = kernel32.NewProc("WTSGetActiveConsoleSessionId")
)

const (
	wtsCurrentServerHandle = 0
	waitObject0            = 0x00000000
	waitTimeout            = 0x00000102
)

// windowsAPI hands environment blocks out as opaque ids so the block pointer
// never round-trips through a uintptr.
type windowsAPI struct {
	mu      sync.Mutex
	lastEnv Handle
	envs    map[Handle]*uint16
}

var errUnknownEnvironment = errors.New("unknown environment block")

func defaultNativeAPI() nativeAPI {
	return &windowsAPI{envs: make(map[Handle]*uint16)}
}

func (a *windowsAPI) environment(id Handle) (*uint16, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	block, ok := a.envs[id]
	return block, ok
}

func (*windowsAPI) EnumerateSessions() ([]Session, error) {
	var info *windows.WTS_SESSION_INFO
	var count uint32
	if err := windows.WTSEnumerateSessions(wtsCurrentServerHandle, 0, 1, &info, &count); err != nil {
		return nil, err
	}
	defer windows.WTSFreeMemory(uintptr(unsafe.Pointer(info)))

	out := make([]Session, 0, count)
	for _, s := range unsafe.Slice(info, count) {
		out = append(out, Session{
			ID:    s.SessionID,
			Name:  windows.UTF16PtrToString(s.WindowStationName),
			State: ConnectState(s.State),
		})
	}
	return out, nil
}

func (*windowsAPI) ActiveConsoleSessionID() uint32 {
	id, _, _ := procWTSGetActiveConsoleSessionID.Call()
	return uint32(id)
}

func (*windowsAPI) QueryUserToken(sessionID uint32) (Handle, error) {
	var token windows.Token
	if err := windows.WTSQueryUserToken(sessionID, &token); err != nil {
		return 0, err
	}
	return Handle(token), nil
}

func (*windowsAPI) DuplicateToken(token Handle, access uint32, level ImpersonationLevel, typ TokenType) (Handle, error) {
	var primary windows.Token
	if err := windows.DuplicateTokenEx(
		windows.Token(token),
		access,
		nil,
		uint32(level),
		uint32(typ),
		&primary,
	); err != nil {
		return 0, err
	}
	return Handle(primary), nil
}

func (a *windowsAPI) CreateEnvironmentBlock(token Handle, inherit bool) (Handle, error) {
	var block *uint16
	if err := windows.CreateEnvironmentBlock(&block, windows.Token(token), inherit); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastEnv++
	a.envs[a.lastEnv] = block
	return a.lastEnv, nil
}

func (a *windowsAPI) DestroyEnvironmentBlock(id Handle) error {
	a.mu.Lock()
	block, ok := a.envs[id]
	delete(a.envs, id)
	a.mu.Unlock()
	if !ok {
		return errUnknownEnvironment
	}
	return windows.DestroyEnvironmentBlock(block)
}

func (a *windowsAPI) CreateProcessAsUser(token Handle, spec createSpec) (LaunchResult, error) {
	appName, err := windows.UTF16PtrFromString(spec.ApplicationName)
	if err != nil {
		return LaunchResult{}, err
	}
	cmdLine, err := windows.UTF16PtrFromString(spec.CommandLine)
	if err != nil {
		return LaunchResult{}, err
	}
	env, ok := a.environment(spec.Environment)
	if !ok {
		return LaunchResult{}, errUnknownEnvironment
	}
	var workDir *uint16
	if spec.WorkingDirectory != "" {
		if workDir, err = windows.UTF16PtrFromString(spec.WorkingDirectory); err != nil {
			return LaunchResult{}, err
		}
	}

	si := new(windows.StartupInfo)
	si.Cb = uint32(unsafe.Sizeof(*si))
	si.Flags = windows.STARTF_USESHOWWINDOW
	si.ShowWindow = uint16(spec.Startup.ShowWindow)
	if spec.Startup.Desktop != "" {
		if si.Desktop, err = windows.UTF16PtrFromString(spec.Startup.Desktop); err != nil {
			return LaunchResult{}, err
		}
	}

	var pi windows.ProcessInformation
	if err := windows.CreateProcessAsUser(
		windows.Token(token),
		appName,
		cmdLine,
		nil,
		nil,
		spec.InheritHandles,
		uint32(spec.Flags),
		env,
		workDir,
		si,
		&pi,
	); err != nil {
		return LaunchResult{}, err
	}
	return LaunchResult{
		ProcessID:     pi.ProcessId,
		ThreadID:      pi.ThreadId,
		ProcessHandle: Handle(pi.Process),
		ThreadHandle:  Handle(pi.Thread),
	}, nil
}

func (*windowsAPI) CloseHandle(h Handle) error {
	return windows.CloseHandle(windows.Handle(h))
}

func (*windowsAPI) WaitProcess(h Handle, timeout time.Duration) (bool, error) {
	event, err := windows.WaitForSingleObject(windows.Handle(h), uint32(timeout/time.Millisecond))
	if err != nil {
		return false, err
	}
	switch event {
	case waitObject0:
		return true, nil
	case waitTimeout:
		return false, nil
	default:
		return false, windows.GetLastError()
	}
}

func (*windowsAPI) ExitCode(h Handle) (uint32, error) {
	var code uint32
	if err := windows.GetExitCodeProcess(windows.Handle(h), &code); err != nil {
		return 0, err
	}
	return code, nil
}

func (*windowsAPI) TerminateProcess(h Handle, code uint32) error {
	return windows.TerminateProcess(windows.Handle(h), code)
}
