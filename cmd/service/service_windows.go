//go:build windows

package main

import (
	"context"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
)

type brokerService struct{}

// Execute runs the broker until the SCM stops it. A broker that fails to
// start reports the failure class as a service-specific exit code and writes
// the reason to the event log.
func (m *brokerService) Execute(_ []string, req <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	status <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- runBroker(ctx, resolveConfigPath()) }()

	status <- svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}

	for {
		select {
		case c := <-req:
			switch c.Cmd {
			case svc.Interrogate:
				status <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				status <- svc.Status{State: svc.StopPending}
				cancel()
				return brokerExit(<-errCh)
			}
		case err := <-errCh:
			return brokerExit(err)
		}
	}
}

func brokerExit(err error) (bool, uint32) {
	code := serviceExitCode(err)
	if code == 0 {
		return false, 0
	}
	if elog, openErr := eventlog.Open(serviceName); openErr == nil {
		_ = elog.Error(code, "broker stopped: "+err.Error())
		_ = elog.Close()
	}
	return true, code
}
