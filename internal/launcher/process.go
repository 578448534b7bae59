package launcher

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"
)

const waitPollInterval = 100 * time.Millisecond

// Process is a process started by a Launcher, either in the interactive user's
// session or as an ordinary child process.
type Process struct {
	Pid      int
	ThreadID uint32

	api     nativeAPI
	process *owned
	thread  *owned

	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error

	mu     sync.Mutex
	closed bool
}

func newElevatedProcess(api nativeAPI, res LaunchResult) *Process {
	return &Process{
		Pid:      int(res.ProcessID),
		ThreadID: res.ThreadID,
		api:      api,
		process:  ownHandle(api, res.ProcessHandle),
		thread:   ownHandle(api, res.ThreadHandle),
	}
}

func newPlainProcess(cmd *exec.Cmd) *Process {
	p := &Process{
		Pid:  cmd.Process.Pid,
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p
}

// Elevated reports whether the process was created in the user's session.
func (p *Process) Elevated() bool {
	return p.process != nil
}

// Exited reports whether the process has terminated. After Close, or for a
// process without a handle, it reports true.
func (p *Process) Exited() bool {
	if p == nil {
		return true
	}
	if p.done != nil {
		select {
		case <-p.done:
			return true
		default:
			return false
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.process == nil || p.closed {
		return true
	}
	exited, err := p.api.WaitProcess(p.process.Handle(), 0)
	if err != nil {
		return true
	}
	return exited
}

// Wait blocks until the process exits or ctx is done and returns its exit code.
func (p *Process) Wait(ctx context.Context) (int, error) {
	if p.done != nil {
		select {
		case <-p.done:
		case <-ctx.Done():
			return -1, ctx.Err()
		}
		if p.waitErr != nil {
			var exitErr *exec.ExitError
			if errors.As(p.waitErr, &exitErr) {
				return exitErr.ExitCode(), nil
			}
			return -1, p.waitErr
		}
		return 0, nil
	}

	for {
		p.mu.Lock()
		if p.process == nil || p.closed {
			p.mu.Unlock()
			return -1, errors.New("process handle closed")
		}
		h := p.process.Handle()
		exited, err := p.api.WaitProcess(h, waitPollInterval)
		if err != nil {
			p.mu.Unlock()
			return -1, err
		}
		if exited {
			code, err := p.api.ExitCode(h)
			p.mu.Unlock()
			if err != nil {
				return -1, err
			}
			return int(code), nil
		}
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		default:
		}
	}
}

// Kill terminates the process immediately.
func (p *Process) Kill() error {
	if p.cmd != nil {
		return p.cmd.Process.Kill()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.process == nil || p.closed {
		return errors.New("process handle closed")
	}
	return p.api.TerminateProcess(p.process.Handle(), 1)
}

// Close releases the caller's thread and process handles. It does not stop
// the process, and the Launcher that started it keeps tracking it.
func (p *Process) Close() error {
	if p == nil || p.cmd != nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return errors.Join(p.thread.Close(), p.process.Close())
}
