package launcher

import (
	"errors"
	"fmt"
	"syscall"
	"time"
)

// fakeAPI records pipeline calls and tracks every handle it hands out.
type fakeAPI struct {
	sessions  []Session
	enumErr   error
	consoleID uint32
	queryErr  error
	dupErr    error
	envErr    error
	createErr error

	next     Handle
	live     map[Handle]string
	calls    []string
	released []string
	specs    []createSpec
	queried  []uint32
	dupArgs  []string

	exited   map[Handle]bool
	exitCode uint32
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		sessions: []Session{
			{ID: 0, Name: "Services", State: StateDisconnected},
			{ID: 3, Name: "Console", State: StateActive},
		},
		consoleID: InvalidSessionID,
		next:      100,
		live:      make(map[Handle]string),
		exited:    make(map[Handle]bool),
	}
}

func (f *fakeAPI) acquire(kind string) Handle {
	f.next++
	f.live[f.next] = kind
	return f.next
}

func (f *fakeAPI) releaseKind(h Handle, kind string) error {
	got, ok := f.live[h]
	if !ok {
		return fmt.Errorf("release of unknown or already released handle %d", h)
	}
	if kind == "env" && got != "env" {
		return fmt.Errorf("handle %d (%s) destroyed as environment block", h, got)
	}
	if kind != "env" && got == "env" {
		return fmt.Errorf("environment block %d closed as a handle", h)
	}
	delete(f.live, h)
	f.released = append(f.released, got)
	return nil
}

func (f *fakeAPI) EnumerateSessions() ([]Session, error) {
	f.calls = append(f.calls, "enumerate")
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	return f.sessions, nil
}

func (f *fakeAPI) ActiveConsoleSessionID() uint32 {
	f.calls = append(f.calls, "console")
	return f.consoleID
}

func (f *fakeAPI) QueryUserToken(sessionID uint32) (Handle, error) {
	f.calls = append(f.calls, "query_token")
	f.queried = append(f.queried, sessionID)
	if f.queryErr != nil {
		return 0, f.queryErr
	}
	return f.acquire("user_token"), nil
}

func (f *fakeAPI) DuplicateToken(token Handle, access uint32, level ImpersonationLevel, typ TokenType) (Handle, error) {
	f.calls = append(f.calls, "duplicate")
	f.dupArgs = append(f.dupArgs, fmt.Sprintf("%s access=%#x level=%d type=%d", f.live[token], access, level, typ))
	if f.dupErr != nil {
		return 0, f.dupErr
	}
	return f.acquire("primary_token"), nil
}

func (f *fakeAPI) CreateEnvironmentBlock(token Handle, inherit bool) (Handle, error) {
	f.calls = append(f.calls, fmt.Sprintf("create_env inherit=%v", inherit))
	if f.envErr != nil {
		return 0, f.envErr
	}
	return f.acquire("env"), nil
}

func (f *fakeAPI) DestroyEnvironmentBlock(block Handle) error {
	f.calls = append(f.calls, "destroy_env")
	return f.releaseKind(block, "env")
}

func (f *fakeAPI) CreateProcessAsUser(token Handle, spec createSpec) (LaunchResult, error) {
	f.calls = append(f.calls, "create_process")
	f.specs = append(f.specs, spec)
	if f.live[token] != "primary_token" {
		return LaunchResult{}, errors.New("create_process called without a live primary token")
	}
	if f.live[spec.Environment] != "env" {
		return LaunchResult{}, errors.New("create_process called without a live environment block")
	}
	if f.createErr != nil {
		return LaunchResult{}, f.createErr
	}
	return LaunchResult{
		ProcessID:     4242,
		ThreadID:      4243,
		ProcessHandle: f.acquire("process"),
		ThreadHandle:  f.acquire("thread"),
	}, nil
}

func (f *fakeAPI) CloseHandle(h Handle) error {
	f.calls = append(f.calls, "close")
	return f.releaseKind(h, "handle")
}

func (f *fakeAPI) WaitProcess(h Handle, _ time.Duration) (bool, error) {
	if _, ok := f.live[h]; !ok {
		return false, syscall.Errno(6)
	}
	return f.exited[h], nil
}

func (f *fakeAPI) ExitCode(Handle) (uint32, error) { return f.exitCode, nil }

func (f *fakeAPI) TerminateProcess(h Handle, code uint32) error {
	f.exited[h] = true
	f.exitCode = code
	return nil
}

func privileged(ok bool) IdentityProvider {
	return IdentityFunc(func() (bool, error) { return ok, nil })
}
