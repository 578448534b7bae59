// Package launcher starts processes inside the interactive user's desktop
// session from a session-less service identity (LocalSystem). Callers that are
// not LocalSystem, or that ask for shell execution, get an ordinary child
// process instead.
package launcher

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
)

// Stage is a step of the elevation pipeline.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageSessionResolved  Stage = "session_resolved"
	StageTokenAcquired    Stage = "token_acquired"
	StageEnvironmentBuilt Stage = "environment_built"
	StageCreated          Stage = "created"
	StageCleaned          Stage = "cleaned"
	StageFailed           Stage = "failed"
)

// Launcher decides per request whether to launch through the session token
// pipeline or through ordinary process creation. Start calls on one Launcher
// are serialised.
type Launcher struct {
	mu       sync.Mutex
	identity IdentityProvider
	api      nativeAPI
	logger   *log.Logger

	last      *Process
	tracked   *owned
	lastStage Stage
}

// New returns a Launcher using the platform binding.
func New(identity IdentityProvider, logger *log.Logger) *Launcher {
	return newLauncher(identity, defaultNativeAPI(), logger)
}

func newLauncher(identity IdentityProvider, api nativeAPI, logger *log.Logger) *Launcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Launcher{
		identity:  identity,
		api:       api,
		logger:    logger,
		lastStage: StageIdle,
	}
}

// Start launches req. When elevation applies and the previously launched
// process is still running, Start does nothing and returns ErrAlreadyRunning.
func (l *Launcher) Start(req LaunchRequest) (*Process, error) {
	if req.ExecutablePath == "" {
		return nil, errors.New("executable path is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.shouldElevate(req) {
		return startPlain(req)
	}

	if l.running() {
		l.logger.Printf("launcher: skip %s, pid=%d still running", req.ExecutablePath, l.last.Pid)
		return nil, ErrAlreadyRunning
	}

	proc, stage, err := l.runPipeline(req)
	if err != nil {
		l.lastStage = StageFailed
		l.logger.Printf("launcher: launch %s failed after stage=%s: %v", req.ExecutablePath, stage, err)
		return nil, err
	}
	l.lastStage = StageCleaned
	l.last = proc
	l.tracked = proc.process.retain()
	l.logger.Printf("launcher: started %s pid=%d", req.ExecutablePath, proc.Pid)
	return proc, nil
}

// running reports whether the last launched process is still alive. It uses
// the Launcher's own reference, so it holds after the caller closes theirs.
func (l *Launcher) running() bool {
	if l.tracked == nil {
		return false
	}
	exited, err := l.api.WaitProcess(l.tracked.Handle(), 0)
	if err != nil {
		l.logger.Printf("launcher: wait pid=%d: %v", l.last.Pid, err)
	}
	if err == nil && !exited {
		return true
	}
	if err := l.tracked.Close(); err != nil {
		l.logger.Printf("launcher: release pid=%d: %v", l.last.Pid, err)
	}
	l.tracked = nil
	return false
}

// Close releases the Launcher's reference to the last launched process.
// Processes the caller still holds are unaffected.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.tracked.Close()
	l.tracked = nil
	return err
}

// LastProcess returns the most recent process started through the pipeline.
func (l *Launcher) LastProcess() *Process {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// LastStage returns the final stage of the most recent pipeline run:
// StageCleaned on success, StageFailed otherwise, StageIdle before any run.
func (l *Launcher) LastStage() Stage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastStage
}

func (l *Launcher) shouldElevate(req LaunchRequest) bool {
	if req.UseShellExecute || l.identity == nil {
		return false
	}
	ok, err := l.identity.IsSessionlessSystem()
	if err != nil {
		l.logger.Printf("launcher: identity check failed, using plain start: %v", err)
		return false
	}
	return ok
}

// runPipeline returns the last stage reached alongside the result. Every
// resource acquired along the way is released before it returns.
func (l *Launcher) runPipeline(req LaunchRequest) (*Process, Stage, error) {
	stage := StageIdle

	sessionID, err := findActiveSession(l.api)
	if err != nil {
		return nil, stage, err
	}
	stage = StageSessionResolved

	token, err := acquirePrimaryToken(l.api, sessionID)
	if err != nil {
		return nil, stage, err
	}
	defer token.Close()
	stage = StageTokenAcquired

	env, err := buildEnvironment(l.api, token)
	if err != nil {
		return nil, stage, err
	}
	stage = StageEnvironmentBuilt

	proc, err := launchAsUser(l.api, token, env, req)
	if err != nil {
		return nil, stage, err
	}
	l.logger.Printf("launcher: created pid=%d in session=%d", proc.Pid, sessionID)
	return proc, StageCreated, nil
}

func startPlain(req LaunchRequest) (*Process, error) {
	cmd := exec.Command(req.ExecutablePath, req.Arguments...)
	cmd.Dir = req.WorkingDirectory
	cmd.SysProcAttr = plainSysProcAttr(req)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", req.ExecutablePath, err)
	}
	return newPlainProcess(cmd), nil
}
