package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"userlaunch/internal/config"
	"userlaunch/internal/identity"
	"userlaunch/internal/ipc"
	"userlaunch/internal/launcher"
	"userlaunch/internal/winquit"
	"userlaunch/pkg/utils"
)

type launchStarter interface {
	Start(req launcher.LaunchRequest) (*launcher.Process, error)
}

// Startup failures, reported as service-specific exit codes.
var (
	errConfig = errors.New("config")
	errLogger = errors.New("logger")
	errPipe   = errors.New("pipe server")
)

const (
	exitConfig uint32 = 2
	exitLogger uint32 = 3
	exitPipe   uint32 = 4
	exitOther  uint32 = 1
)

// serviceExitCode maps a runBroker error to the service-specific exit code
// reported to the service control manager.
func serviceExitCode(err error) uint32 {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errConfig):
		return exitConfig
	case errors.Is(err, errLogger):
		return exitLogger
	case errors.Is(err, errPipe):
		return exitPipe
	default:
		return exitOther
	}
}

// processSlot holds the broker's reference to its most recent launch. A
// replaced process is closed exactly once.
type processSlot struct {
	mu      sync.Mutex
	current *launcher.Process
	close   func(*launcher.Process) error
}

func newProcessSlot() *processSlot {
	return &processSlot{close: (*launcher.Process).Close}
}

func (s *processSlot) get() *launcher.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *processSlot) replace(p *launcher.Process) error {
	s.mu.Lock()
	prev := s.current
	s.current = p
	s.mu.Unlock()
	if prev == nil || prev == p {
		return nil
	}
	return s.close(prev)
}

type brokerDeps struct {
	cfg         *config.Config
	launcher    launchStarter
	procs       *processSlot
	identity    launcher.IdentityProvider
	closeWindow func(pid uint32) error
	limiter     *rate.Limiter
	logger      *log.Logger
	startedAt   time.Time
}

func runBroker(ctx context.Context, cfgPath string) error {
	if err := config.EnsureExists(cfgPath); err != nil {
		return fmt.Errorf("%w: create default: %w", errConfig, err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("%w: load: %w", errConfig, err)
	}

	logger, logCloser, err := utils.NewLogger(
		logPathOrFallback(cfg.Logging.File),
		cfg.Logging.MaxSizeMB,
		cfg.Logging.MaxBackups,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", errLogger, err)
	}
	defer logCloser.Close()

	id := identity.Current()
	l := launcher.New(id, logger)
	defer l.Close()
	procs := newProcessSlot()
	defer procs.replace(nil)

	handler := buildIPCHandler(brokerDeps{
		cfg:         cfg,
		launcher:    l,
		procs:       procs,
		identity:    id,
		closeWindow: winquit.RequestClose,
		limiter:     newLaunchLimiter(cfg.Broker.LaunchesPerMinute),
		logger:      logger,
		startedAt:   time.Now().UTC(),
	})

	pipeServer, err := ipc.StartPipeServer(cfg.Broker.PipeName, handler)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errPipe, cfg.Broker.PipeName, err)
	}
	defer pipeServer.Close()
	logger.Printf("broker: pipe server started: %s", cfg.Broker.PipeName)

	<-ctx.Done()
	logger.Println("broker: stopping")
	return nil
}

func newLaunchLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func buildIPCHandler(d brokerDeps) ipc.Handler {
	return func(req ipc.Request) ipc.Response {
		resp := handleRequest(d, req)
		resp.RequestID = req.RequestID
		d.logger.Printf("broker: request=%s action=%s status=%s %s", req.RequestID, req.Action, resp.Status, resp.Message)
		return resp
	}
}

func handleRequest(d brokerDeps, req ipc.Request) ipc.Response {
	switch strings.ToLower(req.Action) {
	case ipc.ActionLaunch:
		return handleLaunch(d, req)
	case ipc.ActionClose:
		pid := req.PID
		if pid == 0 {
			if p := d.procs.get(); p != nil && !p.Exited() {
				pid = uint32(p.Pid)
			}
		}
		if pid == 0 {
			return ipc.Response{Status: "error", Message: "pid is required"}
		}
		if err := d.closeWindow(pid); err != nil {
			return ipc.Response{Status: "error", Message: err.Error()}
		}
		return ipc.Response{Status: "ok", Data: map[string]any{"pid": pid}}
	case ipc.ActionStatus:
		system, err := d.identity.IsSessionlessSystem()
		data := map[string]any{
			"started_at":   d.startedAt.Format(time.RFC3339),
			"local_system": system,
			"running":      false,
		}
		if err != nil {
			data["identity_error"] = err.Error()
		}
		if p := d.procs.get(); p != nil {
			data["last_pid"] = p.Pid
			data["running"] = !p.Exited()
		}
		return ipc.Response{Status: "ok", Data: data}
	default:
		return ipc.Response{Status: "error", Message: "unknown action"}
	}
}

func handleLaunch(d brokerDeps, req ipc.Request) ipc.Response {
	if req.Executable == "" {
		return ipc.Response{Status: "error", Message: "executable is required"}
	}
	if !d.cfg.IsAllowedExecutable(req.Executable) {
		return ipc.Response{Status: "error", Message: "executable is not allowed"}
	}
	if !d.limiter.Allow() {
		return ipc.Response{Status: "error", Message: "launch rate limit exceeded"}
	}

	proc, err := d.launcher.Start(launcher.LaunchRequest{
		ExecutablePath:   req.Executable,
		Arguments:        req.Arguments,
		WorkingDirectory: req.WorkingDirectory,
		CreateNoWindow:   req.CreateNoWindow,
	})
	if errors.Is(err, launcher.ErrAlreadyRunning) {
		return ipc.Response{Status: "busy", Message: err.Error()}
	}
	if err != nil {
		return ipc.Response{Status: "error", Message: err.Error()}
	}
	if err := d.procs.replace(proc); err != nil {
		d.logger.Printf("broker: release previous process: %v", err)
	}
	return ipc.Response{Status: "ok", Data: map[string]any{"pid": proc.Pid, "elevated": proc.Elevated()}}
}

func resolveConfigPath() string {
	if p := os.Getenv("USERLAUNCH_CONFIG"); p != "" {
		return p
	}
	if runtime.GOOS == "windows" {
		return `C:\ProgramData\UserLaunch\config.yaml`
	}
	return "config.yaml"
}

func logPathOrFallback(path string) string {
	if path == "" {
		return "userlaunch.log"
	}
	return path
}
