package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"userlaunch/internal/config"
	"userlaunch/internal/ipc"
	"userlaunch/internal/launcher"
	"userlaunch/internal/uninstall"
	"userlaunch/internal/winquit"
)

var brokerRetryInterval = 500 * time.Millisecond

const (
	actionCommit          = "commit"
	actionAfterInstall    = "after-install"
	actionBeforeUninstall = "before-uninstall"
	actionAfterUninstall  = "after-uninstall"
)

// helper sequences installer actions. The function fields are the OS side
// effects so the sequencing can be tested without a Windows host.
type helper struct {
	cfg    *config.Config
	logger *log.Logger

	launch       func(launcher.LaunchRequest) (*launcher.Process, error)
	send         func(pipeName string, req ipc.Request) (*ipc.Response, error)
	findByImage  func(name string) ([]uint32, error)
	waitGone     func(ctx context.Context, name string, poll time.Duration) error
	requestClose func(pid uint32) error
	writeEntry   func(uninstall.Entry) error
	removeEntry  func(key string) error
	startService func(name string, timeout time.Duration) error
	stopService  func(name string, timeout time.Duration) error
}

func (h *helper) run(ctx context.Context, action string) error {
	switch action {
	case actionCommit:
		return h.commit()
	case actionAfterInstall:
		return h.afterInstall(ctx)
	case actionBeforeUninstall:
		return h.beforeUninstall(ctx)
	case actionAfterUninstall:
		return h.afterUninstall()
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func (h *helper) commit() error {
	entry := h.cfg.Install.Uninstall
	if err := h.writeEntry(entry); err != nil {
		return fmt.Errorf("write uninstall entry %q: %w", entry.Key, err)
	}
	h.logger.Printf("uninstall entry written: %s", entry.Key)
	return nil
}

func (h *helper) afterInstall(ctx context.Context) error {
	timeout := time.Duration(h.cfg.Install.WaitTimeoutSec) * time.Second

	if image := h.cfg.Install.InstallerImage; image != "" {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		h.logger.Printf("waiting for installer %s to exit", image)
		if err := h.waitGone(waitCtx, image, 500*time.Millisecond); err != nil {
			return fmt.Errorf("wait for installer %s: %w", image, err)
		}
	}

	if h.cfg.Install.ManageService {
		h.logger.Printf("starting service %q", h.cfg.Broker.ServiceName)
		if err := h.startService(h.cfg.Broker.ServiceName, timeout); err != nil {
			return fmt.Errorf("start service %q: %w", h.cfg.Broker.ServiceName, err)
		}
	}

	if h.cfg.App.Executable == "" {
		return nil
	}
	if h.cfg.Install.ManageService {
		return h.launchThroughBroker(ctx, timeout)
	}
	proc, err := h.launch(launcher.LaunchRequest{
		ExecutablePath:   h.cfg.App.Executable,
		Arguments:        h.cfg.App.Arguments,
		WorkingDirectory: h.cfg.App.WorkingDirectory,
		CreateNoWindow:   h.cfg.App.CreateNoWindow,
	})
	if err != nil {
		return fmt.Errorf("launch %s: %w", h.cfg.App.Executable, err)
	}
	h.logger.Printf("launched %s pid=%d elevated=%v", h.cfg.App.Executable, proc.Pid, proc.Elevated())
	return proc.Close()
}

// launchThroughBroker asks the LocalSystem broker to start the app in the
// user's session. The pipe may not accept connections right after the
// service reports running, so dial failures are retried until timeout.
func (h *helper) launchThroughBroker(ctx context.Context, timeout time.Duration) error {
	req := ipc.NewRequest(ipc.ActionLaunch)
	req.Executable = h.cfg.App.Executable
	req.Arguments = h.cfg.App.Arguments
	req.WorkingDirectory = h.cfg.App.WorkingDirectory
	req.CreateNoWindow = h.cfg.App.CreateNoWindow

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pipe := h.cfg.Broker.PipeName
	for {
		resp, err := h.send(pipe, req)
		if err == nil {
			err = resp.Err()
			if errors.Is(err, ipc.ErrBusy) {
				h.logger.Printf("broker: %s already running", h.cfg.App.Executable)
				return nil
			}
			if err != nil {
				return fmt.Errorf("launch %s through broker: %w", h.cfg.App.Executable, err)
			}
			h.logger.Printf("broker launched %s request=%s data=%v", h.cfg.App.Executable, req.RequestID, resp.Data)
			return nil
		}

		h.logger.Printf("broker %s not reachable yet: %v", pipe, err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("reach broker %s: %w", pipe, err)
		case <-time.After(brokerRetryInterval):
		}
	}
}

func (h *helper) beforeUninstall(ctx context.Context) error {
	if image := h.cfg.App.ImageName; image != "" {
		pids, err := h.findByImage(image)
		if err != nil {
			h.logger.Printf("warning: list %s processes: %v", image, err)
		}
		for _, pid := range pids {
			if err := h.requestClose(pid); err != nil {
				if errors.Is(err, winquit.ErrNoWindow) {
					h.logger.Printf("pid=%d has no window to close", pid)
					continue
				}
				h.logger.Printf("warning: close pid=%d: %v", pid, err)
				continue
			}
			h.logger.Printf("close requested for pid=%d", pid)
		}

		if len(pids) > 0 {
			waitCtx, cancel := context.WithTimeout(ctx, time.Duration(h.cfg.App.CloseTimeoutSec)*time.Second)
			defer cancel()
			if err := h.waitGone(waitCtx, image, 250*time.Millisecond); err != nil {
				h.logger.Printf("warning: %s still running: %v", image, err)
			}
		}
	}

	if h.cfg.Install.ManageService {
		timeout := time.Duration(h.cfg.Install.WaitTimeoutSec) * time.Second
		if err := h.stopService(h.cfg.Broker.ServiceName, timeout); err != nil {
			return fmt.Errorf("stop service %q: %w", h.cfg.Broker.ServiceName, err)
		}
	}
	return nil
}

func (h *helper) afterUninstall() error {
	key := h.cfg.Install.Uninstall.Key
	if err := h.removeEntry(key); err != nil {
		return fmt.Errorf("remove uninstall entry %q: %w", key, err)
	}
	h.logger.Printf("uninstall entry removed: %s", key)
	return nil
}
