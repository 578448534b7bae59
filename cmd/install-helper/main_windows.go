//go:build windows

package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"

	"userlaunch/internal/config"
	"userlaunch/internal/identity"
	"userlaunch/internal/ipc"
	"userlaunch/internal/launcher"
	"userlaunch/internal/procwatch"
	"userlaunch/internal/uninstall"
	"userlaunch/internal/winquit"
)

func main() {
	var (
		action     = flag.String("action", "", "commit | after-install | before-uninstall | after-uninstall")
		configPath = flag.String("config", `C:\ProgramData\UserLaunch\config.yaml`, "Path to config.yaml")
		installer  = flag.String("installer-image", "", "Installer process image to wait for (overrides config)")
		logPath    = flag.String("log", `C:\ProgramData\UserLaunch\logs\install-helper.log`, "Log file path")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "install-helper ", log.LstdFlags)
	if *logPath != "" {
		if err := os.MkdirAll(filepath.Dir(*logPath), 0o755); err == nil {
			if f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
				defer f.Close()
				logger.SetOutput(io.MultiWriter(os.Stdout, f))
			}
		}
	}

	if *action == "" {
		logger.Fatalf("missing required arg: action")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *installer != "" {
		cfg.Install.InstallerImage = *installer
	}

	l := launcher.New(identity.Current(), logger)
	h := &helper{
		cfg:          cfg,
		logger:       logger,
		launch:       l.Start,
		send:         ipc.SendRequest,
		findByImage:  procwatch.FindByImage,
		waitGone:     procwatch.WaitGone,
		requestClose: winquit.RequestClose,
		writeEntry:   uninstall.Write,
		removeEntry:  uninstall.Remove,
		startService: startService,
		stopService:  stopService,
	}

	err = h.run(context.Background(), *action)
	_ = l.Close()
	if err != nil {
		logger.Fatalf("%s failed: %v", *action, err)
	}
	logger.Printf("%s completed", *action)
}
