package main

import (
	"errors"
	"io"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"userlaunch/internal/config"
	"userlaunch/internal/ipc"
	"userlaunch/internal/launcher"
)

const demoExe = `C:\Program Files\Demo\demo.exe`

type fakeStarter struct {
	requests []launcher.LaunchRequest
	proc     *launcher.Process
	err      error
}

func (f *fakeStarter) Start(req launcher.LaunchRequest) (*launcher.Process, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.proc, nil
}

func testDeps(starter *fakeStarter) (brokerDeps, *[]uint32) {
	cfg := config.Default()
	cfg.Broker.AllowedExecutables = []string{demoExe}
	var closed []uint32
	return brokerDeps{
		cfg:      cfg,
		launcher: starter,
		procs:    newProcessSlot(),
		identity: launcher.IdentityFunc(func() (bool, error) { return true, nil }),
		closeWindow: func(pid uint32) error {
			closed = append(closed, pid)
			return nil
		},
		limiter:   newLaunchLimiter(60),
		logger:    log.New(io.Discard, "", 0),
		startedAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}, &closed
}

func TestLaunchRejectsExecutableOutsideAllowList(t *testing.T) {
	starter := &fakeStarter{proc: &launcher.Process{Pid: 42}}
	deps, _ := testDeps(starter)
	h := buildIPCHandler(deps)

	resp := h(ipc.Request{RequestID: "r1", Action: "launch", Executable: `C:\Windows\System32\cmd.exe`})
	if resp.Status != "error" {
		t.Fatalf("status=%s, want error", resp.Status)
	}
	if len(starter.requests) != 0 {
		t.Fatal("launcher should not be called")
	}
	if resp.RequestID != "r1" {
		t.Fatalf("request id=%q, want r1", resp.RequestID)
	}
}

func TestLaunchStartsAllowedExecutable(t *testing.T) {
	starter := &fakeStarter{proc: &launcher.Process{Pid: 42}}
	deps, _ := testDeps(starter)
	h := buildIPCHandler(deps)

	resp := h(ipc.Request{
		Action:         "LAUNCH",
		Executable:     demoExe,
		Arguments:      []string{"--first-run"},
		CreateNoWindow: true,
	})
	if resp.Status != "ok" {
		t.Fatalf("status=%s message=%s", resp.Status, resp.Message)
	}
	data := resp.Data.(map[string]any)
	if data["pid"] != 42 {
		t.Fatalf("pid=%v, want 42", data["pid"])
	}
	if len(starter.requests) != 1 {
		t.Fatalf("requests=%d, want 1", len(starter.requests))
	}
	got := starter.requests[0]
	if got.ExecutablePath != demoExe || !got.CreateNoWindow || got.UseShellExecute {
		t.Fatalf("unexpected launch request: %+v", got)
	}
}

func TestLaunchReportsBusyWhilePreviousRuns(t *testing.T) {
	starter := &fakeStarter{err: launcher.ErrAlreadyRunning}
	deps, _ := testDeps(starter)

	resp := buildIPCHandler(deps)(ipc.Request{Action: "launch", Executable: demoExe})
	if resp.Status != "busy" {
		t.Fatalf("status=%s, want busy", resp.Status)
	}
}

func TestLaunchSurfacesPipelineError(t *testing.T) {
	starter := &fakeStarter{err: &launcher.SessionResolutionError{}}
	deps, _ := testDeps(starter)

	resp := buildIPCHandler(deps)(ipc.Request{Action: "launch", Executable: demoExe})
	if resp.Status != "error" || resp.Message == "" {
		t.Fatalf("resp=%+v, want error with message", resp)
	}
}

func TestLaunchIsRateLimited(t *testing.T) {
	starter := &fakeStarter{proc: &launcher.Process{Pid: 7}}
	deps, _ := testDeps(starter)
	deps.limiter = newLaunchLimiter(1)
	h := buildIPCHandler(deps)

	if resp := h(ipc.Request{Action: "launch", Executable: demoExe}); resp.Status != "ok" {
		t.Fatalf("first launch status=%s", resp.Status)
	}
	resp := h(ipc.Request{Action: "launch", Executable: demoExe})
	if resp.Status != "error" || resp.Message != "launch rate limit exceeded" {
		t.Fatalf("second launch resp=%+v", resp)
	}
	if len(starter.requests) != 1 {
		t.Fatalf("requests=%d, want 1", len(starter.requests))
	}
}

func TestCloseUsesRequestedPID(t *testing.T) {
	deps, closed := testDeps(&fakeStarter{})
	h := buildIPCHandler(deps)

	if resp := h(ipc.Request{Action: "close", PID: 1234}); resp.Status != "ok" {
		t.Fatalf("status=%s message=%s", resp.Status, resp.Message)
	}
	if len(*closed) != 1 || (*closed)[0] != 1234 {
		t.Fatalf("closed=%v, want [1234]", *closed)
	}
}

func TestCloseWithoutPIDOrRunningProcess(t *testing.T) {
	deps, closed := testDeps(&fakeStarter{})
	if resp := buildIPCHandler(deps)(ipc.Request{Action: "close"}); resp.Status != "error" {
		t.Fatalf("status=%s, want error", resp.Status)
	}
	if len(*closed) != 0 {
		t.Fatalf("closed=%v, want none", *closed)
	}
}

func TestCloseReportsWindowError(t *testing.T) {
	deps, _ := testDeps(&fakeStarter{})
	deps.closeWindow = func(uint32) error { return errors.New("no window") }

	resp := buildIPCHandler(deps)(ipc.Request{Action: "close", PID: 5})
	if resp.Status != "error" || resp.Message != "no window" {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestStatusReportsIdentityAndLastProcess(t *testing.T) {
	deps, _ := testDeps(&fakeStarter{})
	deps.procs.replace(&launcher.Process{Pid: 99})

	resp := buildIPCHandler(deps)(ipc.Request{Action: "status"})
	data := resp.Data.(map[string]any)
	if data["local_system"] != true {
		t.Fatalf("local_system=%v", data["local_system"])
	}
	if data["last_pid"] != 99 {
		t.Fatalf("last_pid=%v", data["last_pid"])
	}
	if data["running"] != false {
		t.Fatalf("running=%v, want false for an untracked process", data["running"])
	}
	if data["started_at"] != "2026-10-14T09:00:00Z" {
		t.Fatalf("started_at=%v", data["started_at"])
	}
}

func TestUnknownAction(t *testing.T) {
	deps, _ := testDeps(&fakeStarter{})
	if resp := buildIPCHandler(deps)(ipc.Request{Action: "reboot"}); resp.Status != "error" {
		t.Fatalf("status=%s, want error", resp.Status)
	}
}

func TestLaunchStoresProcessForClose(t *testing.T) {
	starter := &fakeStarter{proc: &launcher.Process{Pid: 42}}
	deps, closed := testDeps(starter)
	h := buildIPCHandler(deps)

	if resp := h(ipc.Request{Action: "launch", Executable: demoExe}); resp.Status != "ok" {
		t.Fatalf("launch status=%s message=%s", resp.Status, resp.Message)
	}
	if deps.procs.get() != starter.proc {
		t.Fatal("launched process should be held by the broker")
	}
	if resp := h(ipc.Request{Action: "close"}); resp.Status != "error" {
		t.Fatalf("close of an untracked process status=%s, want error", resp.Status)
	}
	if len(*closed) != 0 {
		t.Fatalf("closed=%v", *closed)
	}
}

func TestProcessSlotClosesEachReplacedProcessOnce(t *testing.T) {
	var mu sync.Mutex
	closed := map[int]int{}
	slot := newProcessSlot()
	slot.close = func(p *launcher.Process) error {
		mu.Lock()
		defer mu.Unlock()
		closed[p.Pid]++
		return nil
	}

	const n = 32
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			_ = slot.replace(&launcher.Process{Pid: pid})
		}(i)
	}
	wg.Wait()

	last := slot.get()
	if last == nil {
		t.Fatal("slot should hold the last process")
	}
	if len(closed) != n-1 {
		t.Fatalf("closed %d processes, want %d", len(closed), n-1)
	}
	for pid, count := range closed {
		if count != 1 {
			t.Fatalf("pid=%d closed %d times", pid, count)
		}
		if pid == last.Pid {
			t.Fatalf("current pid=%d was closed", pid)
		}
	}

	if err := slot.replace(nil); err != nil {
		t.Fatalf("replace(nil): %v", err)
	}
	if closed[last.Pid] != 1 {
		t.Fatal("clearing the slot should close the current process")
	}
}

func TestServiceExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want uint32
	}{
		{nil, 0},
		{fmt.Errorf("%w: load: %w", errConfig, errors.New("bad yaml")), exitConfig},
		{fmt.Errorf("%w: %w", errLogger, errors.New("denied")), exitLogger},
		{fmt.Errorf("%w: %s: %w", errPipe, `\\.\pipe\x`, errors.New("in use")), exitPipe},
		{errors.New("other"), exitOther},
	}
	var got []uint32
	var want []uint32
	for _, tt := range tests {
		got = append(got, serviceExitCode(tt.err))
		want = append(want, tt.want)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("exit codes (-want +got):\n%s", diff)
	}
}
